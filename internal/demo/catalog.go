package demo

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/match"
)

//go:embed scenarios.yaml
var embeddedScenarios []byte

// Scenario is a canned listing and footprint served when a provider runs without credentials.
type Scenario struct {
	Name        string            `yaml:"name"`
	Keywords    []string          `yaml:"keywords"`
	PhoneRisk   string            `yaml:"phone_risk"`
	AddressType string            `yaml:"address_type"`
	Listing     listing.Listing   `yaml:"listing"`
	Footprint   listing.Footprint `yaml:"footprint"`
}

type catalogFile struct {
	Defaults struct {
		Listing   string `yaml:"listing"`
		Footprint string `yaml:"footprint"`
	} `yaml:"defaults"`
	Scenarios    []Scenario       `yaml:"scenarios"`
	Policies     string           `yaml:"policies"`
	LeadGenTerms map[int][]string `yaml:"lead_gen_terms"`
}

// Catalog holds the demo scenarios and the policy framework text handed to the auditor.
type Catalog struct {
	scenarios        []Scenario
	byName           map[string]int
	defaultListing   string
	defaultFootprint string
	policies         string
	leadGenTerms     map[int][]string
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	catalog, err := Parse(embeddedScenarios)
	if err != nil {
		panic(fmt.Sprintf("embedded scenarios: %v", err))
	}
	return catalog
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read scenarios: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var raw catalogFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal scenarios: %w", err)
	}
	if len(raw.Scenarios) == 0 {
		return nil, errors.New("scenarios missing")
	}
	c := &Catalog{
		scenarios:        raw.Scenarios,
		byName:           make(map[string]int, len(raw.Scenarios)),
		defaultListing:   strings.TrimSpace(raw.Defaults.Listing),
		defaultFootprint: strings.TrimSpace(raw.Defaults.Footprint),
		policies:         strings.TrimSpace(raw.Policies),
		leadGenTerms:     raw.LeadGenTerms,
	}
	for i, sc := range raw.Scenarios {
		name := strings.TrimSpace(sc.Name)
		if name == "" {
			return nil, fmt.Errorf("scenario %d has no name", i)
		}
		if _, dup := c.byName[name]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", name)
		}
		c.byName[name] = i
	}
	if c.defaultListing == "" {
		c.defaultListing = raw.Scenarios[0].Name
	}
	if c.defaultFootprint == "" {
		c.defaultFootprint = c.defaultListing
	}
	for _, name := range []string{c.defaultListing, c.defaultFootprint} {
		if _, ok := c.byName[name]; !ok {
			return nil, fmt.Errorf("default scenario %q not defined", name)
		}
	}
	return c, nil
}

// Names lists scenario names in file order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.scenarios))
	for _, sc := range c.scenarios {
		out = append(out, sc.Name)
	}
	return out
}

// Scenario returns the named scenario.
func (c *Catalog) Scenario(name string) (Scenario, bool) {
	idx, ok := c.byName[strings.TrimSpace(name)]
	if !ok {
		return Scenario{}, false
	}
	return c.scenarios[idx], true
}

// Policies is the policy framework text the auditor reasons against.
func (c *Catalog) Policies() string {
	return c.policies
}

// LeadGenTerms returns the severity-keyed keyword-stuffing vocabulary.
func (c *Catalog) LeadGenTerms() map[int][]string {
	return c.leadGenTerms
}

// ListingFor picks the scenario whose keywords appear in the search query, falling back to the
// default listing scenario.
func (c *Catalog) ListingFor(query string) Scenario {
	return c.pick(query, c.defaultListing)
}

// FootprintFor picks search signals for a business name, falling back to the default footprint
// scenario.
func (c *Catalog) FootprintFor(name string) listing.Footprint {
	return c.pick(name, c.defaultFootprint).Footprint
}

// FallbackListing is served when the live places provider fails.
func (c *Catalog) FallbackListing() listing.Listing {
	sc, _ := c.Scenario(c.defaultListing)
	return sc.Listing
}

func (c *Catalog) pick(text, fallback string) Scenario {
	for _, sc := range c.scenarios {
		for _, kw := range sc.Keywords {
			if match.ContainsFold(text, kw) {
				return sc
			}
		}
	}
	sc, _ := c.Scenario(fallback)
	return sc
}
