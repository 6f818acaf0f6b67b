package api

import (
	"time"

	"listing-trust-eval/internal/investigate"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/scoring"
	"listing-trust-eval/internal/store"
)

// InvestigateRequest starts an investigation for a business query.
type InvestigateRequest struct {
	Query string `json:"query"`
}

// InvestigationDTO is the full API representation of an investigation.
type InvestigationDTO struct {
	investigate.Report
	RiskLevel string   `json:"risk_level"`
	LogLines  []string `json:"log_lines"`
}

// InvestigationSummaryDTO is the history row shown in listings.
type InvestigationSummaryDTO struct {
	ID           string    `json:"id"`
	Query        string    `json:"query"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Score        int       `json:"score"`
	Verdict      string    `json:"verdict"`
	Action       string    `json:"recommendation"`
	Breakdown    []string  `json:"breakdown"`
	Mode         string    `json:"mode"`
	ProcessingMs int64     `json:"processing_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

// InvestigationsResponse is the paginated response for investigation history.
type InvestigationsResponse struct {
	Items []InvestigationSummaryDTO `json:"items"`
	Total int64                     `json:"total"`
}

// InvestigationStatusResponse reports the most recent pipeline event seen by the notifier.
type InvestigationStatusResponse struct {
	State     string     `json:"state"`
	ID        string     `json:"id,omitempty"`
	Query     string     `json:"query,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ScoreRequest scores caller-supplied evidence without running the providers. Verdict takes
// precedence over Narrative when both are set.
type ScoreRequest struct {
	Listing   listing.Listing   `json:"listing"`
	Footprint listing.Footprint `json:"footprint"`
	Narrative string            `json:"narrative"`
	Verdict   *scoring.Verdict  `json:"verdict"`
	Mode      string            `json:"mode"`
}

// ScoreResponse carries the trust engine output.
type ScoreResponse struct {
	Score      int                 `json:"score"`
	Breakdown  []string            `json:"breakdown"`
	Deductions []scoring.Deduction `json:"deductions"`
	Burst      scoring.BurstResult `json:"burst"`
	Verdict    scoring.Level       `json:"verdict"`
	Mode       string              `json:"mode"`
}

func toInvestigationDTO(r investigate.Report) InvestigationDTO {
	return InvestigationDTO{
		Report:    r,
		RiskLevel: r.Verdict.Level.String(),
		LogLines:  investigate.Lines(r.Logs),
	}
}

func toSummaryDTO(row store.Investigation) InvestigationSummaryDTO {
	return InvestigationSummaryDTO{
		ID:           row.ID,
		Query:        row.Query,
		Name:         row.Name,
		Address:      row.Address,
		Score:        row.Score,
		Verdict:      row.VerdictLevel,
		Action:       row.Recommendation,
		Breakdown:    row.Breakdown(),
		Mode:         row.Mode,
		ProcessingMs: row.ProcessingMs,
		CreatedAt:    row.CreatedAt,
	}
}
