package ai

import (
	"context"
	"strings"
	"testing"
	"time"

	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/scoring"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func TestFallbackAuditor(t *testing.T) {
	cases := []struct {
		name    string
		listing listing.Listing
		level   scoring.Level
		action  string
		reality string
	}{
		{
			name:    "locksmith name",
			listing: listing.Listing{Name: "Best LOCKSMITH 24/7", Address: "123 Main St"},
			level:   scoring.LevelHigh,
			action:  "Suspend Listing",
			reality: "Residential Location verified.",
		},
		{
			name:    "residential address",
			listing: listing.Listing{Name: "Quick Plumbing", Address: "12 Oak Ln (Residential)"},
			level:   scoring.LevelHigh,
			action:  "Suspend Listing",
			reality: "Residential Location verified.",
		},
		{
			name:    "commercial",
			listing: listing.Listing{Name: "Daily Grind Coffee", Address: "456 Market St"},
			level:   scoring.LevelLow,
			action:  "No Action",
			reality: "Commercial Location verified.",
		},
	}

	auditor := &FallbackAuditor{Clock: fixedClock}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			audit, err := auditor.Audit(context.Background(), AuditInput{Listing: tc.listing})
			if err != nil {
				t.Fatalf("audit: %v", err)
			}
			if audit.Source != SourceFallback {
				t.Fatalf("expected fallback source got %q", audit.Source)
			}
			if audit.Verdict.Level != tc.level || audit.Verdict.Action != tc.action {
				t.Fatalf("unexpected verdict %+v", audit.Verdict)
			}
			if !strings.Contains(audit.Narrative, tc.reality) {
				t.Fatalf("narrative missing %q:\n%s", tc.reality, audit.Narrative)
			}
			if !strings.Contains(audit.Narrative, "**Date**: 2024-03-01") {
				t.Fatalf("narrative missing date:\n%s", audit.Narrative)
			}
			// The narrative must round-trip through the parser to the same verdict.
			parsed := ParseVerdict(audit.Narrative)
			if parsed.Level != tc.level || parsed.Action != tc.action {
				t.Fatalf("parsed verdict %+v does not match %+v", parsed, audit.Verdict)
			}
		})
	}
}

func TestFallbackNilClock(t *testing.T) {
	var auditor FallbackAuditor
	if !auditor.Enabled() {
		t.Fatalf("fallback auditor should always be enabled")
	}
	if _, err := auditor.Audit(context.Background(), AuditInput{}); err != nil {
		t.Fatalf("audit: %v", err)
	}
}
