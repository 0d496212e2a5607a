package planner

import (
	"errors"
	"testing"
	"time"
)

func at(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02T15:04:05", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestValidate(t *testing.T) {
	now := at("2024-01-01T00:00:00")
	tests := []struct {
		name      string
		draft     Draft
		wantKind  ErrorKind
		wantField string
	}{
		{"missing start", Draft{EndTime: at("2024-01-02T10:00:00")}, MissingField, FieldStart},
		{"missing end", Draft{StartTime: at("2024-01-02T10:00:00")}, MissingField, FieldEnd},
		{"missing both", Draft{}, MissingField, FieldStart},
		{"start in past", Draft{StartTime: at("2023-12-31T23:00:00"), EndTime: at("2024-01-01T02:00:00")}, StartNotFuture, FieldStart},
		{"start equals now", Draft{StartTime: now, EndTime: at("2024-01-01T02:00:00")}, StartNotFuture, FieldStart},
		{"end before start", Draft{StartTime: at("2024-01-02T10:00:00"), EndTime: at("2024-01-02T09:00:00")}, EndBeforeStart, FieldEnd},
		{"end equals start", Draft{StartTime: at("2024-01-02T10:00:00"), EndTime: at("2024-01-02T10:00:00")}, EndBeforeStart, FieldEnd},
		{"past start reported before ordering", Draft{StartTime: at("2023-12-31T23:00:00"), EndTime: at("2023-12-31T22:00:00")}, StartNotFuture, FieldStart},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.draft, now)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if verr.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", verr.Kind, tt.wantKind)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
			if !errors.Is(err, &ValidationError{Kind: tt.wantKind}) {
				t.Errorf("errors.Is(%v, kind %v) = false", err, tt.wantKind)
			}
		})
	}
}

func TestValidateOK(t *testing.T) {
	now := at("2024-01-01T00:00:00")
	d := Draft{SpaceID: 1, StartTime: at("2024-01-02T10:00:00"), EndTime: at("2024-01-02T11:30:00")}
	if err := Validate(d, now); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		price int64
		want  int64
	}{
		{"fractional hour rounds up", "2024-01-02T10:00:00", "2024-01-02T11:30:00", 2000, 4000},
		{"exact hour", "2024-01-02T10:00:00", "2024-01-02T11:00:00", 2000, 2000},
		{"61 minutes is two hours", "2024-01-02T10:00:00", "2024-01-02T11:01:00", 1000, 2000},
		{"one second over", "2024-01-02T10:00:00", "2024-01-02T12:00:01", 500, 1500},
		{"start equals end", "2024-01-02T10:00:00", "2024-01-02T10:00:00", 2000, 0},
		{"end before start", "2024-01-02T10:00:00", "2024-01-02T09:00:00", 2000, 0},
		{"free space", "2024-01-02T10:00:00", "2024-01-02T13:00:00", 0, 0},
		{"overnight", "2024-01-01T22:00:00", "2024-01-02T06:15:00", 100, 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Draft{StartTime: at(tt.start), EndTime: at(tt.end)}
			if got := EstimateCost(d, tt.price); got != tt.want {
				t.Errorf("EstimateCost() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEstimateCostIncompleteDraft(t *testing.T) {
	if got := EstimateCost(Draft{StartTime: at("2024-01-02T10:00:00")}, 2000); got != 0 {
		t.Errorf("EstimateCost(no end) = %d, want 0", got)
	}
	if got := EstimateCost(Draft{EndTime: at("2024-01-02T10:00:00")}, 2000); got != 0 {
		t.Errorf("EstimateCost(no start) = %d, want 0", got)
	}
}

func TestParseLocal(t *testing.T) {
	loc := time.FixedZone("KST", 9*3600)

	got, err := ParseLocal("2024-01-02T10:00", loc)
	if err != nil {
		t.Fatalf("ParseLocal() error: %v", err)
	}
	want := time.Date(2024, 1, 2, 10, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("ParseLocal() = %v, want %v", got, want)
	}

	got, err = ParseLocal("2024-01-02 10:00", loc)
	if err != nil {
		t.Fatalf("ParseLocal(space separated) error: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("ParseLocal(space separated) = %v, want %v", got, want)
	}

	got, err = ParseLocal("   ", loc)
	if err != nil || !got.IsZero() {
		t.Errorf("ParseLocal(blank) = %v, %v; want zero, nil", got, err)
	}

	if _, err := ParseLocal("10am", loc); err == nil {
		t.Error("expected error for unparseable input")
	}
}

func TestFormatLocal(t *testing.T) {
	if got := FormatLocal(at("2024-01-02T10:00:00")); got != "2024-01-02T10:00:00" {
		t.Errorf("FormatLocal() = %q", got)
	}
}
