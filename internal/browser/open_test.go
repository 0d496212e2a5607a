package browser

import "testing"

func TestMapURL(t *testing.T) {
	got := MapURL(37.5665, 126.978)
	want := "https://www.openstreetmap.org/?mlat=37.566500&mlon=126.978000#map=17/37.566500/126.978000"
	if got != want {
		t.Errorf("MapURL = %q, want %q", got, want)
	}
}

func TestSearchURL(t *testing.T) {
	got := SearchURL("서울 중구 세종대로 110")
	want := "https://www.openstreetmap.org/search?query=%EC%84%9C%EC%9A%B8+%EC%A4%91%EA%B5%AC+%EC%84%B8%EC%A2%85%EB%8C%80%EB%A1%9C+110"
	if got != want {
		t.Errorf("SearchURL = %q, want %q", got, want)
	}
}
