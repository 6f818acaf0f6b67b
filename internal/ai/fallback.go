package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"listing-trust-eval/internal/match"
	"listing-trust-eval/internal/scoring"
	"listing-trust-eval/internal/util"
)

// FallbackAuditor writes a deterministic analyst report from simple listing heuristics. It is
// always enabled and never fails, so the scoring engine always has a narrative to read.
type FallbackAuditor struct {
	Clock util.Clock
}

// NewFallbackAuditor returns a fallback auditor on the system clock.
func NewFallbackAuditor() *FallbackAuditor {
	return &FallbackAuditor{Clock: util.SystemClock}
}

// Enabled always reports true.
func (f *FallbackAuditor) Enabled() bool {
	return true
}

// Audit builds the heuristic report. A listing is suspicious when its name mentions a locksmith
// or its address is residential.
func (f *FallbackAuditor) Audit(_ context.Context, input AuditInput) (Audit, error) {
	clock := util.SystemClock
	if f != nil && f.Clock != nil {
		clock = f.Clock
	}

	l := input.Listing
	suspicious := match.ContainsFold(l.Name, "locksmith") || strings.Contains(l.Address, "Residential")

	level := scoring.LevelLow
	action := "No Action"
	location := "Commercial"
	analysis := `1.  **Ghost Business Analysis**: Validated commercial address. Co-located with known commercial entities.
2.  **Lead-Gen Indicators**: Name follows standard branding. No keyword stuffing detected.
3.  **Digital Footprint**: Strong signal correlation across 3+ external platforms (Facebook, generic directory).`
	if suspicious {
		level = scoring.LevelHigh
		action = "Suspend Listing"
		location = "Residential"
		analysis = `1.  **Ghost Business Analysis**: The address provided identifies as a residential zone (` + "`R-1 zoning`" + `). No storefront signage is visible in OSINT records.
2.  **Lead-Gen Indicators**: ` + leadGenFinding(input.LeadGenTerms) + `
3.  **Digital Footprint**: Absence of Cross-Directory validation (BBB, YellowPages) suggests a 'Pop-up' entity.`
	}

	b := &strings.Builder{}
	b.WriteString("### Analyst Report (Automated)\n\n")
	fmt.Fprintf(b, "**Mission**: Forensic Analysis of %q\n", l.Name)
	fmt.Fprintf(b, "**Date**: %s\n\n", clock().Format("2006-01-02"))
	b.WriteString("**Threat Vector Analysis**:\n")
	b.WriteString(analysis)
	b.WriteString("\n\n**Discrepancy Check**:\n")
	b.WriteString("*   **Claim**: Service Area Business (24/7)\n")
	fmt.Fprintf(b, "*   **Reality**: %s Location verified.\n\n", location)
	fmt.Fprintf(b, "**Risk Verdict**: **%s**\n", titleLevel(level))
	fmt.Fprintf(b, "**Action**: **%s**\n", action)

	narrative := b.String()
	return Audit{
		Narrative: narrative,
		Verdict:   scoring.Verdict{Level: level, Explanation: strings.TrimSpace(narrative), Action: action},
		Source:    SourceFallback,
	}, nil
}

func leadGenFinding(terms []string) string {
	if len(terms) == 0 {
		return "The business name pattern matches service-area lead-gen listings."
	}
	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		quoted = append(quoted, strconv.Quote(term))
	}
	return "The business name contains high-value keywords (" + strings.Join(quoted, ", ") + ") typical of lead-gen farming."
}

func titleLevel(level scoring.Level) string {
	name := level.String()
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
