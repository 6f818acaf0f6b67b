package investigate

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"listing-trust-eval/internal/ai"
	"listing-trust-eval/internal/demo"
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/maps"
	"listing-trust-eval/internal/metrics"
	"listing-trust-eval/internal/scoring"
	"listing-trust-eval/internal/serp"
)

type stubListings struct {
	place maps.Place
	err   error
}

func (s stubListings) Lookup(context.Context, string) (maps.Place, error) {
	return s.place, s.err
}

type stubFootprints struct {
	result serp.Result
	err    error
}

func (s stubFootprints) Search(context.Context, string, string, string) (serp.Result, error) {
	return s.result, s.err
}

type stubAuditor struct {
	audit ai.Audit
	err   error
}

func (s stubAuditor) Enabled() bool { return true }

func (s stubAuditor) Audit(context.Context, ai.AuditInput) (ai.Audit, error) {
	return s.audit, s.err
}

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
}

func TestRunDemoScenarios(t *testing.T) {
	catalog := demo.Default()
	cases := []struct {
		name      string
		query     string
		score     int
		breakdown []string
		action    scoring.Recommendation
		leadGen   []string
	}{
		{
			name:  "locksmith",
			query: "Best Locksmith 24/7",
			score: 20,
			breakdown: []string{
				scoring.MsgReviewBurst,
				scoring.MsgAuditHigh,
			},
			action:  scoring.RecommendSuspend,
			leadGen: []string{"24/7"},
		},
		{
			name:      "coffee",
			query:     "daily grind coffee",
			score:     100,
			breakdown: []string{},
			action:    scoring.RecommendNoAction,
			leadGen:   []string{},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewService(Config{
				Listings:   maps.NewClient(maps.Config{Catalog: catalog}),
				Footprints: serp.NewClient(serp.Config{Catalog: catalog}),
				Policies:   catalog.Policies(),
				LeadGen:    scoring.NewLeadGenScorer(catalog.LeadGenTerms()),
				Clock:      fixedClock,
			})
			if err != nil {
				t.Fatalf("new service: %v", err)
			}
			report, err := svc.Run(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if report.Score != tc.score {
				t.Fatalf("expected score %d got %d (%v)", tc.score, report.Score, report.Breakdown)
			}
			if diff := cmp.Diff(tc.breakdown, report.Breakdown); diff != "" {
				t.Fatalf("breakdown mismatch (-want +got):\n%s", diff)
			}
			if report.AuditSource != ai.SourceFallback || report.ListingSource != maps.SourceDemo {
				t.Fatalf("unexpected sources %q %q", report.AuditSource, report.ListingSource)
			}
			if report.Recommendation != tc.action {
				t.Fatalf("expected recommendation %s got %s", tc.action, report.Recommendation)
			}
			if diff := cmp.Diff(tc.leadGen, report.LeadGen.Terms); diff != "" {
				t.Fatalf("lead-gen mismatch (-want +got):\n%s", diff)
			}
			for _, term := range tc.leadGen {
				if !strings.Contains(report.Narrative, strconv.Quote(term)) {
					t.Fatalf("narrative does not cite %q:\n%s", term, report.Narrative)
				}
			}
			if report.ID == "" || report.Mode != ModeStructured {
				t.Fatalf("unexpected report header %+v", report)
			}
		})
	}
}

func TestRunLogsAndEvents(t *testing.T) {
	var events []Event
	svc, err := NewService(Config{
		Listings: stubListings{place: maps.Place{Source: maps.SourceLive, Listing: listing.Listing{
			Name: "Daily Grind", Address: "456 Market St", Phone: "555", Website: "https://dg.example",
		}}},
		Footprints: stubFootprints{result: serp.Result{Source: serp.SourceLive, Signals: listing.Footprint{{Title: "a"}, {Title: "b"}}}},
		Auditor:    stubAuditor{audit: ai.Audit{Narrative: "Risk Verdict: Low", Verdict: scoring.Verdict{Level: scoring.LevelLow}, Source: ai.SourceGemini}},
		Clock:      fixedClock,
		Observer:   func(e Event) { events = append(events, e) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	report, err := svc.Run(context.Background(), "  daily grind ")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Query != "daily grind" || report.Score != 100 {
		t.Fatalf("unexpected report %+v", report)
	}

	lines := Lines(report.Logs)
	want := []string{
		"[09:30:00] [INVESTIGATOR] Starting investigation for query: daily grind",
		"[09:30:00] [INVESTIGATOR] Step 1: Fetching official Maps data...",
		"[09:30:00] [INVESTIGATOR] Target Acquired: Daily Grind (456 Market St)",
		"[09:30:00] [INVESTIGATOR] Step 2: Searching Digital Footprint (SerpApi)...",
		"[09:30:00] [INVESTIGATOR] Found 2 external signals.",
		"[09:30:00] [AUDITOR] Received case file from Investigator.",
	}
	if diff := cmp.Diff(want, lines[:len(want)]); diff != "" {
		t.Fatalf("log mismatch (-want +got):\n%s", diff)
	}
	if last := lines[len(lines)-1]; !strings.HasSuffix(last, "[AUDITOR] Analysis Complete.") {
		t.Fatalf("unexpected final log line %q", last)
	}

	if len(events) != len(report.Logs)+2 {
		t.Fatalf("expected %d events got %d", len(report.Logs)+2, len(events))
	}
	if events[0].Type != EventStarted || events[len(events)-1].Type != EventCompleted {
		t.Fatalf("unexpected event order: first %s last %s", events[0].Type, events[len(events)-1].Type)
	}
	if events[len(events)-1].Report == nil || events[len(events)-1].ID != report.ID {
		t.Fatalf("completed event missing report")
	}
}

func TestRunScoreModes(t *testing.T) {
	// "Risk Verdict: High" has no sentiment phrase, so only structured mode deducts for it.
	cfg := Config{
		Listings:   stubListings{place: maps.Place{Listing: listing.Listing{Name: "X", Phone: "1", Website: "w"}}},
		Footprints: stubFootprints{result: serp.Result{Signals: listing.Footprint{{Title: "a"}, {Title: "b"}}}},
		Auditor:    stubAuditor{audit: ai.Audit{Narrative: "Risk Verdict: High", Verdict: ai.ParseVerdict("Risk Verdict: High")}},
		Clock:      fixedClock,
	}
	cases := []struct {
		mode  ScoreMode
		score int
	}{
		{ModeStructured, 50},
		{ModeKeyword, 100},
	}
	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			cfg.Mode = tc.mode
			svc, err := NewService(cfg)
			if err != nil {
				t.Fatalf("new service: %v", err)
			}
			report, err := svc.Run(context.Background(), "x")
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if report.Score != tc.score {
				t.Fatalf("expected %d got %d", tc.score, report.Score)
			}
		})
	}
}

func TestRunErrors(t *testing.T) {
	base := func() Config {
		return Config{
			Listings:   stubListings{place: maps.Place{Listing: listing.Listing{Name: "X"}}},
			Footprints: stubFootprints{},
			Auditor:    stubAuditor{audit: ai.Audit{Narrative: "ok"}},
			Clock:      fixedClock,
		}
	}
	cases := []struct {
		name   string
		query  string
		mutate func(*Config)
		want   error
	}{
		{"empty query", "   ", func(*Config) {}, ErrEmptyQuery},
		{"not found", "ghost", func(c *Config) { c.Listings = stubListings{err: maps.ErrNotFound} }, ErrListingNotFound},
		{"lookup failure", "x", func(c *Config) { c.Listings = stubListings{err: context.DeadlineExceeded} }, context.DeadlineExceeded},
		{"audit failure", "x", func(c *Config) { c.Auditor = stubAuditor{err: ai.ErrDisabled} }, ai.ErrDisabled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			rec := metrics.New()
			cfg.Metrics = rec
			var failed bool
			cfg.Observer = func(e Event) {
				if e.Type == EventFailed {
					failed = true
				}
			}
			svc, err := NewService(cfg)
			if err != nil {
				t.Fatalf("new service: %v", err)
			}
			_, err = svc.Run(context.Background(), tc.query)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
			if tc.want != ErrEmptyQuery && !failed {
				t.Fatalf("expected failed event")
			}
		})
	}
}

func TestParseScoreMode(t *testing.T) {
	cases := map[string]ScoreMode{"": ModeStructured, " Structured ": ModeStructured, "KEYWORD": ModeKeyword}
	for in, want := range cases {
		got, err := ParseScoreMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseScoreMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseScoreMode("fuzzy"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}

func TestNewServiceValidates(t *testing.T) {
	if _, err := NewService(Config{Footprints: stubFootprints{}}); err == nil {
		t.Fatalf("expected error without listing provider")
	}
	if _, err := NewService(Config{Listings: stubListings{}}); err == nil {
		t.Fatalf("expected error without footprint provider")
	}
}
