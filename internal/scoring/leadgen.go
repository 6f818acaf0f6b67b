package scoring

import (
	"sort"
	"strings"
)

// LeadGenResult captures keyword-stuffing terms found in a business name.
type LeadGenResult struct {
	Severity int      `json:"severity"`
	Terms    []string `json:"terms"`
}

// Stuffed reports whether any lead-gen term matched.
func (r LeadGenResult) Stuffed() bool {
	return r.Severity > 0
}

type leadGenTerm struct {
	display    string
	normalized string
}

// LeadGenScorer detects lead-gen keywords ("24/7", "emergency", "cheap") in listing names.
// It is informational and never changes the trust score.
type LeadGenScorer struct {
	terms map[int][]leadGenTerm
}

// NewLeadGenScorer builds a scorer from severity-keyed term lists.
func NewLeadGenScorer(terms map[int][]string) *LeadGenScorer {
	out := make(map[int][]leadGenTerm)
	for severity, list := range terms {
		if severity <= 0 {
			continue
		}
		for _, term := range list {
			normalized := normalizeTerm(term)
			if normalized == "" {
				continue
			}
			out[severity] = append(out[severity], leadGenTerm{display: strings.ToLower(strings.TrimSpace(term)), normalized: normalized})
		}
	}
	return &LeadGenScorer{terms: out}
}

// Score returns the highest severity tier with a hit and every term matched in that tier.
func (s *LeadGenScorer) Score(name string) LeadGenResult {
	if s == nil {
		return LeadGenResult{Terms: []string{}}
	}
	normalized := normalizeTerm(name)
	severities := make([]int, 0, len(s.terms))
	for severity := range s.terms {
		severities = append(severities, severity)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(severities)))

	for _, severity := range severities {
		var hits []string
		for _, term := range s.terms[severity] {
			if strings.Contains(normalized, term.normalized) {
				hits = append(hits, term.display)
			}
		}
		if len(hits) > 0 {
			return LeadGenResult{Severity: severity, Terms: dedupe(hits)}
		}
	}
	return LeadGenResult{Terms: []string{}}
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return in
	}
	sort.Strings(in)
	out := make([]string, 0, len(in))
	var prev string
	for _, item := range in {
		if item == prev {
			continue
		}
		out = append(out, item)
		prev = item
	}
	return out
}

// normalizeTerm lowercases and keeps only ASCII letters and digits, so "24/7" matches "247".
func normalizeTerm(term string) string {
	term = strings.ToLower(strings.TrimSpace(term))
	var b strings.Builder
	b.Grow(len(term))
	for _, r := range term {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
