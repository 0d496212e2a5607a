package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// LocalLayout is the backend's ISO-8601 local date-time format (no zone).
const LocalLayout = "2006-01-02T15:04:05"

// LocalTime is a date-time exchanged with the backend. Requests carry the
// wall clock of Time in its own location. Responses without an offset decode
// as a wall clock with no zone; At places them in the caller's zone.
type LocalTime struct {
	time.Time

	// floating is set when the decoded value had no zone offset.
	floating bool
}

var localLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	LocalLayout,
	"2006-01-02T15:04",
}

// ParseLocalTime parses s in any layout the backend is known to emit.
// Values without an offset are read in loc.
func ParseLocalTime(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date-time %q", s)
}

// At returns the instant in loc. A zone-less value keeps its wall clock and
// is anchored in loc; a value with an offset is converted to loc.
func (t LocalTime) At(loc *time.Location) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	if loc == nil {
		loc = time.Local
	}
	if !t.floating {
		return t.In(loc)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// MarshalJSON encodes the wall clock as a zone-less local date-time.
func (t LocalTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(LocalLayout))
}

// UnmarshalJSON accepts null, zone-less and RFC 3339 date-times.
func (t *LocalTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*t = LocalTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("local time: %w", err)
	}
	if s == "" {
		*t = LocalTime{}
		return nil
	}
	// Zone-less values hold their wall clock in UTC until At is called.
	parsed, err := ParseLocalTime(s, time.UTC)
	if err != nil {
		return err
	}
	*t = LocalTime{Time: parsed, floating: !hasOffset(s)}
	return nil
}

// hasOffset reports whether an ISO date-time names its zone.
func hasOffset(s string) bool {
	i := strings.IndexByte(s, 'T')
	if i < 0 {
		return false
	}
	clock := s[i+1:]
	return strings.HasSuffix(clock, "Z") || strings.ContainsAny(clock, "+-")
}
