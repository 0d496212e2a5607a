package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strconv"
)

// Open opens the specified URL in the user's default browser.
func Open(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}

// MapURL returns an OpenStreetMap link with a marker at lat/lng.
func MapURL(lat, lng float64) string {
	la := strconv.FormatFloat(lat, 'f', 6, 64)
	lo := strconv.FormatFloat(lng, 'f', 6, 64)
	return "https://www.openstreetmap.org/?mlat=" + la + "&mlon=" + lo + "#map=17/" + la + "/" + lo
}

// SearchURL returns an OpenStreetMap search for a free-form address.
func SearchURL(address string) string {
	return "https://www.openstreetmap.org/search?query=" + url.QueryEscape(address)
}
