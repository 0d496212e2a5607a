package domain

import "testing"

func TestFormatWon(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0원"},
		{900, "900원"},
		{4000, "4,000원"},
		{1234567, "1,234,567원"},
		{-2500, "-2,500원"},
	}
	for _, tt := range tests {
		if got := FormatWon(tt.in); got != tt.want {
			t.Errorf("FormatWon(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
