package ai

import (
	"strings"

	"listing-trust-eval/internal/scoring"
)

// ParseVerdict extracts a structured verdict from an analyst report. The "Risk Verdict:" and
// "Action:" lines are read with markdown emphasis ignored. Reports without a verdict line are
// classified by keyword instead.
func ParseVerdict(text string) scoring.Verdict {
	verdict := scoring.Verdict{Explanation: strings.TrimSpace(text)}
	found := false
	for _, line := range strings.Split(text, "\n") {
		label, value, ok := splitLabel(line)
		if !ok {
			continue
		}
		switch label {
		case "risk verdict", "verdict":
			if found {
				continue
			}
			if fields := strings.Fields(value); len(fields) > 0 {
				verdict.Level = scoring.ParseLevel(strings.Trim(fields[0], ".,;/"))
				found = verdict.Level != scoring.LevelUnknown
			}
		case "action":
			if verdict.Action == "" {
				verdict.Action = strings.TrimRight(value, ". ")
			}
		}
	}
	if !found {
		verdict.Level = scoring.ClassifyNarrative(text)
	}
	return verdict
}

// splitLabel turns "**Risk Verdict**: **High**" into ("risk verdict", "High").
func splitLabel(line string) (string, string, bool) {
	cleaned := strings.NewReplacer("*", "", "_", "", "`", "", "#", "").Replace(line)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimLeft(cleaned, "-•0123456789. ")
	idx := strings.Index(cleaned, ":")
	if idx <= 0 {
		return "", "", false
	}
	label := strings.ToLower(strings.TrimSpace(cleaned[:idx]))
	value := strings.TrimSpace(cleaned[idx+1:])
	return label, value, true
}
