package investigate

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"listing-trust-eval/internal/ai"
	"listing-trust-eval/internal/scoring"
)

func TestWireDemoDefaults(t *testing.T) {
	var events []string
	service, providers, err := Wire(WiringConfig{
		Observer: func(e Event) { events = append(events, e.Type) },
	})
	if err != nil {
		t.Fatalf("wire: %v", err)
	}
	if providers.Maps.Live() || providers.Serp.Live() {
		t.Fatal("clients without keys should run in demo mode")
	}
	if providers.AuditorSource != ai.SourceFallback || providers.Metrics == nil {
		t.Fatalf("unexpected providers %+v", providers)
	}
	if service.Mode() != ModeStructured {
		t.Fatalf("expected structured mode got %s", service.Mode())
	}

	report, err := service.Run(context.Background(), "Ace Locksmith")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Score != 20 || report.Recommendation != scoring.RecommendSuspend {
		t.Fatalf("unexpected report score %d recommendation %s", report.Score, report.Recommendation)
	}
	if len(events) == 0 || events[len(events)-1] != EventCompleted {
		t.Fatalf("observer not wired, events %v", events)
	}

	rec := httptest.NewRecorder()
	providers.Metrics.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `sentinel_investigations_total{outcome="scored"} 1`) {
		t.Fatalf("wired service did not record metrics:\n%s", rec.Body.String())
	}
}

func TestWireAuditorSelection(t *testing.T) {
	cases := []struct {
		name     string
		key      string
		disabled bool
		source   string
	}{
		{"no key", "", false, ai.SourceFallback},
		{"key", "secret", false, ai.SourceGemini},
		{"key but disabled", "secret", true, ai.SourceFallback},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, providers, err := Wire(WiringConfig{AI: ai.Config{APIKey: tc.key}, DisableAI: tc.disabled})
			if err != nil {
				t.Fatalf("wire: %v", err)
			}
			if providers.AuditorSource != tc.source {
				t.Fatalf("expected %s got %s", tc.source, providers.AuditorSource)
			}
			if !providers.Auditor.Enabled() {
				t.Fatal("wired auditor must always be enabled")
			}
		})
	}
}

func TestWireRejectsUnknownMode(t *testing.T) {
	if _, _, err := Wire(WiringConfig{Mode: "vibes"}); err == nil {
		t.Fatal("expected error for unknown score mode")
	}
}
