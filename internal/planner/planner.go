// Package planner validates booking drafts and previews their cost before
// they are submitted. It performs no I/O and keeps no state; overlap and
// final pricing are decided by the backend.
package planner

import (
	"fmt"
	"strings"
	"time"

	"github.com/parkingmate/parkmate/pkg/domain"
)

// ErrorKind identifies which draft rule was violated.
type ErrorKind int

const (
	MissingField ErrorKind = iota + 1
	StartNotFuture
	EndBeforeStart
)

func (k ErrorKind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case StartNotFuture:
		return "start not in future"
	case EndBeforeStart:
		return "end before start"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Draft fields, used to attach a validation error to the input it concerns.
const (
	FieldStart = "startTime"
	FieldEnd   = "endTime"
)

// ValidationError is a client-detected problem with a draft. It is never
// sent to the network.
type ValidationError struct {
	Kind  ErrorKind
	Field string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case MissingField:
		return e.Field + " is required"
	case StartNotFuture:
		return "start time must be in the future"
	case EndBeforeStart:
		return "end time must be after start time"
	}
	return e.Kind.String()
}

// Is matches another *ValidationError of the same kind, so callers can
// write errors.Is(err, &planner.ValidationError{Kind: planner.StartNotFuture}).
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

// Draft is an unsaved reservation time-range selection. A zero instant
// means the field has not been filled in.
type Draft struct {
	SpaceID   int64
	StartTime time.Time
	EndTime   time.Time
}

// Complete reports whether both instants are set.
func (d Draft) Complete() bool {
	return !d.StartTime.IsZero() && !d.EndTime.IsZero()
}

// Validate checks a draft against now. Rules are applied in order: both
// instants present, start strictly after now, end strictly after start.
func Validate(d Draft, now time.Time) error {
	if d.StartTime.IsZero() {
		return &ValidationError{Kind: MissingField, Field: FieldStart}
	}
	if d.EndTime.IsZero() {
		return &ValidationError{Kind: MissingField, Field: FieldEnd}
	}
	if !d.StartTime.After(now) {
		return &ValidationError{Kind: StartNotFuture, Field: FieldStart}
	}
	if !d.EndTime.After(d.StartTime) {
		return &ValidationError{Kind: EndBeforeStart, Field: FieldEnd}
	}
	return nil
}

// BillableHours is the draft duration rounded up to whole hours. Zero
// when the draft is incomplete or not strictly increasing.
func BillableHours(d Draft) int64 {
	if !d.Complete() || !d.EndTime.After(d.StartTime) {
		return 0
	}
	span := d.EndTime.Sub(d.StartTime)
	hours := int64(span / time.Hour)
	if span%time.Hour != 0 {
		hours++
	}
	return hours
}

// EstimateCost is pricePerHour times the billable hours. The value is for
// display only.
func EstimateCost(d Draft, pricePerHour int64) int64 {
	return pricePerHour * BillableHours(d)
}

// ParseLocal parses a datetime-local style value ("2006-01-02T15:04",
// optionally with seconds) in loc. Blank input yields the zero time so
// the draft reports the field as missing.
func ParseLocal(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}
	t, err := domain.ParseLocalTime(s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("planner.ParseLocal: %w", err)
	}
	return t, nil
}

// FormatLocal renders t as the ISO-8601 local date-time sent to the backend.
func FormatLocal(t time.Time) string {
	return t.Format(domain.LocalLayout)
}
