package demo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"listing-trust-eval/internal/listing"
)

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	if diff := cmp.Diff([]string{"suspicious_locksmith", "legit_coffee"}, c.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(c.Policies(), "Bot Farm") {
		t.Fatal("policy framework text missing")
	}

	sc, ok := c.Scenario("suspicious_locksmith")
	if !ok {
		t.Fatal("locksmith scenario missing")
	}
	if sc.Listing.Name != "Ace 24/7 Locksmith" || len(sc.Listing.Reviews) != 5 {
		t.Fatalf("unexpected locksmith listing %+v", sc.Listing)
	}
	if sc.Listing.Reviews[3].Time != listing.At(1709262000) {
		t.Fatalf("unexpected review time %+v", sc.Listing.Reviews[3].Time)
	}
	if len(sc.Footprint) != 2 {
		t.Fatalf("expected 2 footprint signals got %d", len(sc.Footprint))
	}
	if terms := c.LeadGenTerms(); len(terms[3]) == 0 || terms[3][0] != "24/7" {
		t.Fatalf("unexpected lead-gen terms %v", terms)
	}
}

func TestCatalogPicking(t *testing.T) {
	c := Default()
	tests := []struct {
		name     string
		query    string
		listing  string
		footHint string
	}{
		{"locksmith", "Ace Locksmith, Anytown CA", "Ace 24/7 Locksmith", "Is 555-019-9999 a scam?"},
		{"coffee", "daily grind COFFEE downtown", "Daily Grind Coffee", "Daily Grind Coffee - Yelp"},
		{"unknown", "GK Vale Bangalore", "Ace 24/7 Locksmith", "Daily Grind Coffee - Yelp"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := c.ListingFor(tc.query).Listing.Name; got != tc.listing {
				t.Fatalf("expected listing %q got %q", tc.listing, got)
			}
			if got := c.FootprintFor(tc.query)[0].Title; got != tc.footHint {
				t.Fatalf("expected footprint %q got %q", tc.footHint, got)
			}
		})
	}
	if c.FallbackListing().Name != "Ace 24/7 Locksmith" {
		t.Fatal("fallback listing should be the locksmith scenario")
	}
}

func TestLoadRejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", "scenarios: []"},
		{"unnamed", "scenarios:\n  - keywords: [x]\n"},
		{"duplicate", "scenarios:\n  - name: a\n  - name: a\n"},
		{"missing default", "defaults:\n  listing: b\nscenarios:\n  - name: a\n"},
		{"bad yaml", "scenarios: [\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenarios.yaml")
			if err := os.WriteFile(path, []byte(tc.body), 0o600); err != nil {
				t.Fatalf("write: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadCustomCatalog(t *testing.T) {
	body := `
scenarios:
  - name: bakery
    keywords: [bread]
    listing:
      name: Corner Bakery
      reviews:
        - rating: 5
          time: "1709000000"
policies: be nice
`
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sc := c.ListingFor("anything")
	if sc.Name != "bakery" || sc.Listing.Reviews[0].Time != listing.At(1709000000) {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if c.Policies() != "be nice" {
		t.Fatalf("unexpected policies %q", c.Policies())
	}
}
