package investigate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"listing-trust-eval/internal/ai"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/maps"
	"listing-trust-eval/internal/metrics"
	"listing-trust-eval/internal/scoring"
	"listing-trust-eval/internal/serp"
	"listing-trust-eval/internal/util"
)

var (
	ErrEmptyQuery      = errors.New("investigation query is empty")
	ErrListingNotFound = errors.New("business not found on maps")
)

// ListingProvider resolves a free-text query to the platform's listing.
type ListingProvider interface {
	Lookup(ctx context.Context, query string) (maps.Place, error)
}

// FootprintProvider finds external corroboration for a business.
type FootprintProvider interface {
	Search(ctx context.Context, name, phone, address string) (serp.Result, error)
}

// ScoreMode selects how the audit feeds the trust score.
type ScoreMode string

const (
	// ModeStructured scores the verdict parsed from the audit report.
	ModeStructured ScoreMode = "structured"
	// ModeKeyword scores by phrase matching over the raw narrative.
	ModeKeyword ScoreMode = "keyword"
)

// ParseScoreMode accepts "structured" or "keyword"; blank means structured.
func ParseScoreMode(value string) (ScoreMode, error) {
	switch ScoreMode(strings.ToLower(strings.TrimSpace(value))) {
	case "", ModeStructured:
		return ModeStructured, nil
	case ModeKeyword:
		return ModeKeyword, nil
	default:
		return "", fmt.Errorf("unknown score mode %q", value)
	}
}

// Event types delivered to observers.
const (
	EventStarted   = "started"
	EventLog       = "log"
	EventCompleted = "completed"
	EventFailed    = "failed"
)

// Event is a progress notification for a running investigation.
type Event struct {
	Type   string    `json:"type"`
	ID     string    `json:"id"`
	Query  string    `json:"query"`
	Log    *LogEntry `json:"log,omitempty"`
	Report *Report   `json:"report,omitempty"`
	Error  string    `json:"error,omitempty"`
}

// Observer receives events synchronously from the running investigation.
type Observer func(Event)

// Config wires the service's collaborators.
type Config struct {
	Listings   ListingProvider
	Footprints FootprintProvider
	Auditor    ai.Auditor
	Policies   string
	LeadGen    *scoring.LeadGenScorer
	Mode       ScoreMode
	Clock      util.Clock
	Metrics    *metrics.Recorder
	Observer   Observer
}

// Report is the full output of one investigation.
type Report struct {
	ID              string                 `json:"id"`
	Query           string                 `json:"query"`
	Mode            ScoreMode              `json:"mode"`
	ListingSource   maps.Source            `json:"listing_source"`
	FootprintSource serp.Source            `json:"footprint_source"`
	AuditSource     string                 `json:"audit_source"`
	Listing         listing.Listing        `json:"listing"`
	Footprint       listing.Footprint      `json:"footprint"`
	Narrative       string                 `json:"narrative"`
	Verdict         scoring.Verdict        `json:"verdict"`
	Score           int                    `json:"score"`
	Breakdown       []string               `json:"breakdown"`
	Deductions      []scoring.Deduction    `json:"deductions"`
	Burst           scoring.BurstResult    `json:"burst"`
	LeadGen         scoring.LeadGenResult  `json:"lead_gen"`
	Recommendation  scoring.Recommendation `json:"recommendation"`
	Logs            []LogEntry             `json:"logs"`
	StartedAt       time.Time              `json:"started_at"`
	FinishedAt      time.Time              `json:"finished_at"`
	ProcessingMs    int64                  `json:"processing_ms"`
}

// Service runs the investigator, auditor and trust engine in sequence.
type Service struct {
	listings   ListingProvider
	footprints FootprintProvider
	auditor    ai.Auditor
	policies   string
	leadGen    *scoring.LeadGenScorer
	mode       ScoreMode
	clock      util.Clock
	metrics    *metrics.Recorder
	observer   Observer
}

// NewService validates the configuration. A missing auditor means the heuristic fallback.
func NewService(cfg Config) (*Service, error) {
	if cfg.Listings == nil {
		return nil, errors.New("listing provider required")
	}
	if cfg.Footprints == nil {
		return nil, errors.New("footprint provider required")
	}
	mode, err := ParseScoreMode(string(cfg.Mode))
	if err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = util.SystemClock
	}
	auditor := cfg.Auditor
	if auditor == nil {
		auditor = &ai.FallbackAuditor{Clock: clock}
	}
	return &Service{
		listings:   cfg.Listings,
		footprints: cfg.Footprints,
		auditor:    auditor,
		policies:   cfg.Policies,
		leadGen:    cfg.LeadGen,
		mode:       mode,
		clock:      clock,
		metrics:    cfg.Metrics,
		observer:   cfg.Observer,
	}, nil
}

// Mode returns the configured scoring mode.
func (s *Service) Mode() ScoreMode {
	return s.mode
}

// Run investigates the business matching query and scores it.
func (s *Service) Run(ctx context.Context, query string) (Report, error) {
	return s.run(ctx, query, s.observer)
}

// RunObserved is Run with an extra per-call observer, notified after the service-wide one.
func (s *Service) RunObserved(ctx context.Context, query string, observer Observer) (Report, error) {
	if observer == nil {
		return s.Run(ctx, query)
	}
	combined := observer
	if s.observer != nil {
		combined = func(e Event) {
			s.observer(e)
			observer(e)
		}
	}
	return s.run(ctx, query, combined)
}

func (s *Service) run(ctx context.Context, query string, observer Observer) (Report, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.metrics.ObserveInvestigation("rejected", 0)
		return Report{}, ErrEmptyQuery
	}

	timer := util.StartTimerWith(s.clock)
	report := Report{ID: uuid.NewString(), Query: query, Mode: s.mode, StartedAt: timer.Started()}
	notify := func(e Event) {
		if observer == nil {
			return
		}
		e.ID = report.ID
		e.Query = query
		observer(e)
	}
	log := &agentLog{clock: s.clock, emit: func(entry LogEntry) {
		notify(Event{Type: EventLog, Log: &entry})
	}}
	fail := func(outcome string, err error) (Report, error) {
		report.Logs = log.snapshot()
		report.FinishedAt = s.clock()
		report.ProcessingMs = timer.ElapsedMs()
		s.metrics.ObserveInvestigation(outcome, timer.Elapsed())
		notify(Event{Type: EventFailed, Error: err.Error()})
		return report, err
	}

	notify(Event{Type: EventStarted})
	log.add(AgentInvestigator, "Starting investigation for query: %s", query)

	log.add(AgentInvestigator, "Step 1: Fetching official Maps data...")
	place, err := s.listings.Lookup(ctx, query)
	if err != nil {
		if errors.Is(err, maps.ErrNotFound) {
			log.add(AgentInvestigator, "ERROR: Business not found on Maps.")
			return fail("not_found", fmt.Errorf("%w: %s", ErrListingNotFound, query))
		}
		log.add(AgentInvestigator, "ERROR: Maps lookup failed.")
		return fail("error", fmt.Errorf("lookup listing: %w", err))
	}
	report.Listing = place.Listing
	report.ListingSource = place.Source
	log.add(AgentInvestigator, "Target Acquired: %s (%s)", place.Listing.Name, place.Listing.Address)

	log.add(AgentInvestigator, "Step 2: Searching Digital Footprint (SerpApi)...")
	found, err := s.footprints.Search(ctx, place.Listing.Name, place.Listing.Phone, place.Listing.Address)
	if err != nil {
		return fail("error", fmt.Errorf("search footprint: %w", err))
	}
	report.Footprint = found.Signals
	if report.Footprint == nil {
		report.Footprint = listing.Footprint{}
	}
	report.FootprintSource = found.Source
	log.add(AgentInvestigator, "Found %d external signals.", len(report.Footprint))
	report.LeadGen = s.leadGen.Score(report.Listing.Name)
	if report.LeadGen.Stuffed() {
		log.add(AgentInvestigator, "Name keyword flags: %s", strings.Join(report.LeadGen.Terms, ", "))
	}

	log.add(AgentAuditor, "Received case file from Investigator.")
	log.add(AgentAuditor, "Loading Policy Framework: 'Maps User Contributed Content Policy'...")
	log.add(AgentAuditor, "Step 2: Sending data to the policy model for reasoning...")
	audit, err := s.auditor.Audit(ctx, ai.AuditInput{
		Listing:      report.Listing,
		Footprint:    report.Footprint,
		Policies:     s.policies,
		LeadGenTerms: report.LeadGen.Terms,
	})
	if err != nil {
		log.add(AgentAuditor, "ERROR: Policy audit failed.")
		return fail("error", fmt.Errorf("audit listing: %w", err))
	}
	report.Narrative = audit.Narrative
	report.AuditSource = audit.Source
	log.add(AgentAuditor, "Analysis Complete.")

	verdict := audit.Verdict
	if s.mode == ModeKeyword {
		verdict = scoring.Verdict{
			Level:       scoring.ClassifyNarrative(audit.Narrative),
			Explanation: audit.Verdict.Explanation,
			Action:      audit.Verdict.Action,
		}
	}
	result := scoring.ScoreVerdict(report.Listing, report.Footprint, verdict)
	report.Verdict = verdict
	report.Score = result.Score
	report.Breakdown = result.Breakdown
	report.Deductions = result.Deductions
	report.Burst = result.Burst
	report.Recommendation = scoring.Recommend(result)

	report.Logs = log.snapshot()
	report.FinishedAt = s.clock()
	report.ProcessingMs = timer.ElapsedMs()

	rules := make([]string, 0, len(result.Deductions))
	for _, d := range result.Deductions {
		rules = append(rules, string(d.Rule))
	}
	s.metrics.ObserveInvestigation("scored", timer.Elapsed())
	s.metrics.ObserveScore(result.Score, rules)

	logrus.WithFields(logrus.Fields{
		"id":      report.ID,
		"query":   query,
		"score":   report.Score,
		"verdict": report.Verdict.Level.String(),
		"mode":    s.mode,
		"ms":      report.ProcessingMs,
	}).Info("investigation complete")

	completed := report
	notify(Event{Type: EventCompleted, Report: &completed})
	return report, nil
}
