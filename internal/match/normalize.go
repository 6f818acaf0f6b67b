package match

import (
	"regexp"
	"strings"
)

var (
	protocolStripper = regexp.MustCompile(`^https?://`)
	nonDigit         = regexp.MustCompile(`[^0-9]`)
	whitespace       = regexp.MustCompile(`\s+`)
)

// NormalizeQuery lowercases a free-text search and collapses runs of whitespace.
func NormalizeQuery(input string) string {
	lower := strings.ToLower(strings.TrimSpace(input))
	return whitespace.ReplaceAllString(lower, " ")
}

// ContainsFold reports whether term appears in text, ignoring case.
func ContainsFold(text, term string) bool {
	term = NormalizeQuery(term)
	if term == "" {
		return false
	}
	return strings.Contains(NormalizeQuery(text), term)
}

// PhoneDigits strips formatting from a phone number, keeping a leading plus.
func PhoneDigits(phone string) string {
	trimmed := strings.TrimSpace(phone)
	digits := nonDigit.ReplaceAllString(trimmed, "")
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "+") {
		return "+" + digits
	}
	return digits
}

// LinkKey reduces a result URL to the key used to de-duplicate footprint signals.
// Scheme, leading www., fragment and trailing slashes are ignored; path and query are kept.
func LinkKey(link string) string {
	lower := strings.ToLower(strings.TrimSpace(link))
	lower = protocolStripper.ReplaceAllString(lower, "")
	if idx := strings.Index(lower, "#"); idx >= 0 {
		lower = lower[:idx]
	}
	lower = strings.TrimPrefix(lower, "www.")
	return strings.TrimRight(lower, "/")
}

// Host returns the host portion of a link, without scheme, credentials, port or www.
func Host(link string) string {
	lower := strings.ToLower(strings.TrimSpace(link))
	lower = protocolStripper.ReplaceAllString(lower, "")
	for _, sep := range []string{"/", "?", "#"} {
		if idx := strings.Index(lower, sep); idx >= 0 {
			lower = lower[:idx]
		}
	}
	if idx := strings.LastIndex(lower, "@"); idx >= 0 {
		lower = lower[idx+1:]
	}
	if idx := strings.IndexRune(lower, ':'); idx >= 0 {
		lower = lower[:idx]
	}
	lower = strings.Trim(lower, ".")
	return strings.TrimPrefix(lower, "www.")
}
