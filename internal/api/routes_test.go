package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"listing-trust-eval/internal/investigate"
	"listing-trust-eval/internal/scoring"
)

func newTestServer(t *testing.T, mode investigate.ScoreMode) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	server, err := NewServer(Config{
		DBPath:    filepath.Join(t.TempDir(), "api.db"),
		SilentDB:  true,
		DisableAI: true,
		ScoreMode: mode,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = server.Close() })
	router, err := server.Router()
	if err != nil {
		t.Fatalf("router: %v", err)
	}
	return server, router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndConfig(t *testing.T) {
	_, router := newTestServer(t, "")

	rec := doJSON(t, router, http.MethodGet, "/api/healthz", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var cfg map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if cfg["maps_mode"] != "demo" || cfg["auditor"] != "fallback" || cfg["score_mode"] != "structured" {
		t.Fatalf("unexpected config %v", cfg)
	}
}

func statusOf(t *testing.T, router http.Handler) InvestigationStatusResponse {
	t.Helper()
	rec := doJSON(t, router, http.MethodGet, "/api/investigations/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200 got %d", rec.Code)
	}
	var status InvestigationStatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	return status
}

func TestInvestigationLifecycle(t *testing.T) {
	server, router := newTestServer(t, "")

	if status := statusOf(t, router); status.State != "idle" || status.UpdatedAt != nil {
		t.Fatalf("expected idle status before any run, got %+v", status)
	}

	rec := doJSON(t, router, http.MethodPost, "/api/investigations", InvestigateRequest{Query: "Ace Locksmith"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	var created InvestigationDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode investigation: %v", err)
	}
	if created.ID == "" || created.Score != 20 || created.RiskLevel != "high" || created.Recommendation != scoring.RecommendSuspend {
		t.Fatalf("unexpected investigation %+v", created)
	}
	if len(created.LogLines) == 0 || !strings.Contains(created.LogLines[0], "[INVESTIGATOR]") {
		t.Fatalf("missing agent log lines: %v", created.LogLines)
	}
	if status := server.notifier.LastStatus(); status == nil || status.Report != nil {
		t.Fatalf("replayed status must not carry the report: %+v", status)
	}
	if status := statusOf(t, router); status.State != investigate.EventCompleted || status.ID != created.ID || status.Query != "Ace Locksmith" || status.UpdatedAt == nil {
		t.Fatalf("unexpected investigation status %+v", status)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/investigations/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var fetched InvestigationDTO
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched: %v", err)
	}
	if diff := cmp.Diff(created.Breakdown, fetched.Breakdown); diff != "" {
		t.Fatalf("breakdown mismatch (-want +got):\n%s", diff)
	}

	doJSON(t, router, http.MethodPost, "/api/investigations", InvestigateRequest{Query: "daily grind coffee"})

	rec = doJSON(t, router, http.MethodGet, "/api/investigations?max_score=50&sort=score_asc", nil)
	var list InvestigationsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Items) != 1 || list.Items[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}

	rec = doJSON(t, router, http.MethodGet, "/api/investigations?pageSize=1&page=1&sort=score_asc", nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if list.Total != 2 || len(list.Items) != 1 || list.Items[0].Score != 100 {
		t.Fatalf("unexpected page %+v", list)
	}

	// Oversized paging must clamp rather than overflow into a negative offset.
	for _, path := range []string{
		"/api/investigations?page=9223372036854775807&pageSize=25",
		"/api/investigations?page=4611686018427387904&pageSize=4611686018427387904",
	} {
		rec = doJSON(t, router, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
		list = InvestigationsResponse{}
		if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
			t.Fatalf("decode oversized page: %v", err)
		}
		if list.Total != 2 || len(list.Items) != 0 {
			t.Fatalf("%s: expected an empty page past the end, got %+v", path, list)
		}
	}
}

func TestInvestigationErrors(t *testing.T) {
	_, router := newTestServer(t, "")
	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"empty query", http.MethodPost, "/api/investigations", InvestigateRequest{Query: "  "}, http.StatusBadRequest},
		{"bad body", http.MethodPost, "/api/investigations", nil, http.StatusBadRequest},
		{"missing", http.MethodGet, "/api/investigations/nope", nil, http.StatusNotFound},
		{"bad max score", http.MethodGet, "/api/investigations?max_score=abc", nil, http.StatusBadRequest},
		{"bad verdict", http.MethodGet, "/api/investigations?verdict=purple", nil, http.StatusBadRequest},
		{"bad score mode", http.MethodPost, "/api/score", ScoreRequest{Mode: "fuzzy"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, tc.method, tc.path, tc.body)
			if rec.Code != tc.status {
				t.Fatalf("expected %d got %d: %s", tc.status, rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("missing error body: %s", rec.Body.String())
			}
		})
	}
}

func TestScoreEndpoint(t *testing.T) {
	_, router := newTestServer(t, "")
	high := scoring.Verdict{Level: scoring.LevelHigh}
	cases := []struct {
		name  string
		req   ScoreRequest
		score int
		mode  string
	}{
		{"structured narrative", ScoreRequest{Narrative: "Risk Verdict: High"}, 5, "structured"},
		{"keyword narrative", ScoreRequest{Narrative: "Risk Verdict: High", Mode: "keyword"}, 55, "keyword"},
		{"explicit verdict", ScoreRequest{Verdict: &high, Mode: "keyword"}, 5, "keyword"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, router, http.MethodPost, "/api/score", tc.req)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
			}
			var resp ScoreResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Score != tc.score || resp.Mode != tc.mode {
				t.Fatalf("expected %d/%s got %d/%s (%v)", tc.score, tc.mode, resp.Score, resp.Mode, resp.Breakdown)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, router := newTestServer(t, "")
	doJSON(t, router, http.MethodPost, "/api/investigations", InvestigateRequest{Query: "coffee"})
	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "sentinel_investigations_total") {
		t.Fatalf("metrics missing investigations counter: %d", rec.Code)
	}
}
