package listing

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// invalidMarker is how an unreadable time is written back out, so stored listings keep the flag.
const invalidMarker = "invalid"

// InvalidTimestamp marks a review time that was present but could not be read as Unix seconds.
var InvalidTimestamp = Timestamp{Invalid: true}

// Timestamp is a review time in Unix seconds (UTC). The zero value means the provider sent no
// time. Any integer, negative ones included, is a real time; only Invalid marks bad input.
type Timestamp struct {
	Unix    int64
	Invalid bool
}

// At returns the timestamp for the given Unix seconds.
func At(unix int64) Timestamp {
	return Timestamp{Unix: unix}
}

// Malformed reports whether the provider sent a time that could not be read.
func (t Timestamp) Malformed() bool {
	return t.Invalid
}

// Time converts the timestamp to a UTC time. Missing and malformed values return the zero time.
func (t Timestamp) Time() time.Time {
	if t.Invalid || t.Unix == 0 {
		return time.Time{}
	}
	return time.Unix(t.Unix, 0).UTC()
}

// MarshalJSON writes the Unix seconds, or the string "invalid" for malformed input.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Invalid {
		return json.Marshal(invalidMarker)
	}
	return []byte(strconv.FormatInt(t.Unix, 10)), nil
}

// UnmarshalJSON accepts numbers, numeric strings and null. Anything else decodes to
// InvalidTimestamp so one bad review does not reject the whole listing.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = InvalidTimestamp
			return nil
		}
		*t = parseTimestamp(s)
		return nil
	}
	*t = parseTimestamp(string(data))
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for scenario files.
func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	switch {
	case node.Kind != yaml.ScalarNode:
		*t = InvalidTimestamp
	case node.Tag == "!!null":
		*t = Timestamp{}
	default:
		*t = parseTimestamp(node.Value)
	}
	return nil
}

func parseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Timestamp{}
	}
	if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return At(v)
	}
	// Providers occasionally send float seconds.
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return At(int64(f))
	}
	return InvalidTimestamp
}
