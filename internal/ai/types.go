package ai

import (
	"listing-trust-eval/internal/listing"
	"listing-trust-eval/internal/scoring"
)

// Audit sources.
const (
	SourceGemini   = "gemini"
	SourceFallback = "fallback"
)

// AuditInput is the case file handed to the policy auditor.
type AuditInput struct {
	Listing   listing.Listing
	Footprint listing.Footprint
	Policies  string
	// LeadGenTerms are keyword-stuffing terms already detected in the listing name.
	LeadGenTerms []string
}

// Audit captures the auditor's report: the prose narrative and the verdict parsed from it.
type Audit struct {
	Narrative string          `json:"narrative"`
	Verdict   scoring.Verdict `json:"verdict"`
	Source    string          `json:"source"`
}
