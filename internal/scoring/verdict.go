package scoring

import (
	"fmt"
	"strings"
)

// Level is the risk level reported by the policy auditor.
type Level int

const (
	LevelUnknown Level = iota
	LevelLow
	LevelMedium
	LevelHigh
)

var levelNames = map[Level]string{
	LevelUnknown: "unknown",
	LevelLow:     "low",
	LevelMedium:  "medium",
	LevelHigh:    "high",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return levelNames[LevelUnknown]
}

// ParseLevel maps a free-form level label ("High", " medium ", "LOW") onto a Level.
func ParseLevel(value string) Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high", "critical", "severe":
		return LevelHigh
	case "medium", "moderate":
		return LevelMedium
	case "low", "none", "minimal":
		return LevelLow
	default:
		return LevelUnknown
	}
}

// MarshalText encodes the level as its lowercase name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name. Unrecognised names are rejected.
func (l *Level) UnmarshalText(text []byte) error {
	raw := strings.ToLower(strings.TrimSpace(string(text)))
	if raw == "" || raw == levelNames[LevelUnknown] {
		*l = LevelUnknown
		return nil
	}
	parsed := ParseLevel(raw)
	if parsed == LevelUnknown {
		return fmt.Errorf("unknown risk level %q", string(text))
	}
	*l = parsed
	return nil
}

// Verdict is the structured outcome of a policy audit.
type Verdict struct {
	Level       Level  `json:"level"`
	Explanation string `json:"explanation,omitempty"`
	Action      string `json:"action,omitempty"`
}

// sentimentTerms is the keyword vocabulary the auditor's prose is matched against, by level.
var sentimentTerms = map[Level][]string{
	LevelHigh:   {"high confidence", "high risk", "fraud"},
	LevelMedium: {"medium risk"},
	LevelLow:    {"low risk", "passed"},
}

// ClassifyNarrative scans an audit narrative for risk phrases, highest severity first.
// The first level with a hit wins; text with no known phrase is LevelUnknown.
func ClassifyNarrative(text string) Level {
	normalized := strings.ToLower(text)
	for _, level := range []Level{LevelHigh, LevelMedium, LevelLow} {
		for _, term := range sentimentTerms[level] {
			if strings.Contains(normalized, term) {
				return level
			}
		}
	}
	return LevelUnknown
}
