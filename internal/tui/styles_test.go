package tui

import (
	"strings"
	"testing"

	"github.com/parkingmate/parkmate/pkg/domain"
)

func TestRenderShimmerLogoKeepsLetters(t *testing.T) {
	for _, frame := range []int{0, 1, 17, 1000} {
		logo := renderShimmerLogo(frame)
		for _, ch := range "PARKMATE" {
			if !strings.ContainsRune(logo, ch) {
				t.Errorf("frame %d: logo missing %q: %q", frame, ch, logo)
			}
		}
	}
}

func TestClampByte(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{-4, 0},
		{0, 0},
		{127.4, 127},
		{255, 255},
		{300, 255},
	}
	for _, tt := range tests {
		if got := clampByte(tt.in); got != tt.want {
			t.Errorf("clampByte(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestStatusStyleRendersLabel(t *testing.T) {
	for _, s := range []domain.BookingStatus{domain.BookingReserved, domain.BookingCancelled, "PENDING"} {
		if got := statusStyle(s).Render(s.Label()); !strings.Contains(got, s.Label()) {
			t.Errorf("statusStyle(%q) rendered %q", s, got)
		}
	}
}

func TestHelpViewListsCommandsAndKeys(t *testing.T) {
	view := helpView()
	for _, want := range []string{"parkmate login", "parkmate book <id>", "Keys", "quit"} {
		if !strings.Contains(view, want) {
			t.Errorf("help view missing %q", want)
		}
	}
}
