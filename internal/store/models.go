package store

import (
	"encoding/json"
	"strings"
	"time"

	"listing-trust-eval/internal/investigate"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/maps"
	"listing-trust-eval/internal/scoring"
	"listing-trust-eval/internal/serp"
)

// Investigation is one scored investigation persisted for history queries.
type Investigation struct {
	ID              string `gorm:"primaryKey;size:36"`
	Query           string `gorm:"size:255;index"`
	Name            string `gorm:"size:255;index"`
	Address         string `gorm:"size:512"`
	Phone           string `gorm:"size:64"`
	Website         string `gorm:"size:512"`
	ReviewCount     int
	ListingSource   string `gorm:"size:16"`
	FootprintSource string `gorm:"size:16"`
	AuditSource     string `gorm:"size:16"`
	ListingJSON     string `gorm:"type:text"`
	FootprintJSON   string `gorm:"type:text"`
	Narrative       string `gorm:"type:text"`
	VerdictLevel    string `gorm:"size:16;index"`
	VerdictAction   string `gorm:"size:64"`
	Score           int    `gorm:"index"`
	BreakdownJSON   string `gorm:"type:text"`
	DeductionsJSON  string `gorm:"type:text"`
	BurstStatus     string `gorm:"size:16"`
	BurstGap        int64
	Recommendation  string `gorm:"size:16;index"`
	LeadGenJSON     string `gorm:"type:text"`
	LogsJSON        string `gorm:"type:text"`
	Mode            string `gorm:"size:16"`
	ProcessingMs    int64
	StartedAt       time.Time
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
}

// NewInvestigation flattens a report into its persisted form.
func NewInvestigation(r investigate.Report) *Investigation {
	inv := &Investigation{
		ID:              r.ID,
		Query:           r.Query,
		Name:            r.Listing.Name,
		Address:         r.Listing.Address,
		Phone:           r.Listing.Phone,
		Website:         r.Listing.Website,
		ReviewCount:     len(r.Listing.Reviews),
		ListingSource:   string(r.ListingSource),
		FootprintSource: string(r.FootprintSource),
		AuditSource:     r.AuditSource,
		Narrative:       r.Narrative,
		VerdictLevel:    r.Verdict.Level.String(),
		VerdictAction:   r.Verdict.Action,
		Score:           r.Score,
		BurstStatus:     string(r.Burst.Status),
		BurstGap:        r.Burst.Gap,
		Recommendation:  string(r.Recommendation),
		Mode:            string(r.Mode),
		ProcessingMs:    r.ProcessingMs,
		StartedAt:       r.StartedAt,
	}
	inv.ListingJSON = encodeJSON(r.Listing)
	inv.FootprintJSON = encodeJSON(r.Footprint)
	inv.BreakdownJSON = encodeJSON(r.Breakdown)
	inv.DeductionsJSON = encodeJSON(r.Deductions)
	inv.LogsJSON = encodeJSON(r.Logs)
	inv.LeadGenJSON = encodeJSON(r.LeadGen)
	return inv
}

// Report rebuilds the investigation report from the stored columns.
func (i *Investigation) Report() investigate.Report {
	r := investigate.Report{
		ID:           i.ID,
		Query:        i.Query,
		Mode:         investigate.ScoreMode(i.Mode),
		AuditSource:  i.AuditSource,
		Narrative:    i.Narrative,
		Score:        i.Score,
		StartedAt:    i.StartedAt,
		FinishedAt:   i.CreatedAt,
		ProcessingMs: i.ProcessingMs,
		Verdict: scoring.Verdict{
			Level:       scoring.ParseLevel(i.VerdictLevel),
			Explanation: i.Narrative,
			Action:      i.VerdictAction,
		},
		Burst: scoring.BurstResult{
			Status:  scoring.BurstStatus(i.BurstStatus),
			Gap:     i.BurstGap,
			Samples: i.ReviewCount,
		},
	}
	r.Recommendation = scoring.Recommendation(i.Recommendation)
	r.ListingSource = maps.Source(i.ListingSource)
	r.FootprintSource = serp.Source(i.FootprintSource)
	decodeJSON(i.ListingJSON, &r.Listing)
	if !decodeJSON(i.FootprintJSON, &r.Footprint) || r.Footprint == nil {
		r.Footprint = listing.Footprint{}
	}
	if !decodeJSON(i.BreakdownJSON, &r.Breakdown) || r.Breakdown == nil {
		r.Breakdown = []string{}
	}
	if !decodeJSON(i.DeductionsJSON, &r.Deductions) || r.Deductions == nil {
		r.Deductions = []scoring.Deduction{}
	}
	decodeJSON(i.LogsJSON, &r.Logs)
	if !decodeJSON(i.LeadGenJSON, &r.LeadGen) || r.LeadGen.Terms == nil {
		r.LeadGen.Terms = []string{}
	}
	return r
}

// Breakdown returns the decoded deduction messages.
func (i *Investigation) Breakdown() []string {
	var out []string
	if !decodeJSON(i.BreakdownJSON, &out) || out == nil {
		return []string{}
	}
	return out
}

func encodeJSON(v any) string {
	payload, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(payload)
}

func decodeJSON(raw string, out any) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}
