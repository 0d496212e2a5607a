package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ParkingSpace is a listed parking space as returned by the backend.
type ParkingSpace struct {
	ID           int64    `json:"id"`
	Address      string   `json:"address"`
	PricePerHour int64    `json:"pricePerHour"`
	Description  string   `json:"description,omitempty"`
	OwnerName    string   `json:"ownerName"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	ImageURLs    string   `json:"imageUrls,omitempty"` // comma separated
}

// HasLocation reports whether the space carries coordinates.
func (s ParkingSpace) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// TimeSlot is a free interval offered by the available-slots endpoint.
type TimeSlot struct {
	StartTime  LocalTime `json:"startTime"`
	EndTime    LocalTime `json:"endTime"`
	TotalPrice int64     `json:"totalPrice"`
}

// SpaceSort names a listing order understood by the backend.
type SpaceSort string

const (
	SortLatest    SpaceSort = "latest"
	SortPriceAsc  SpaceSort = "price_asc"
	SortPriceDesc SpaceSort = "price_desc"
	// SortDistance applies to nearby searches only.
	SortDistance SpaceSort = "distance"
)

// ParseSpaceSort validates a sort name. nearby allows SortDistance.
func ParseSpaceSort(s string, nearby bool) (SpaceSort, error) {
	switch v := SpaceSort(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return "", nil
	case SortLatest, SortPriceAsc, SortPriceDesc:
		return v, nil
	case SortDistance:
		if nearby {
			return v, nil
		}
		return "", fmt.Errorf("sort %q needs a location", s)
	}
	return "", fmt.Errorf("unknown sort %q (latest, price_asc, price_desc, distance)", s)
}

// SpacePage is one page of a paged space search.
type SpacePage struct {
	Content       []ParkingSpace `json:"content"`
	Page          int            `json:"page"`
	Size          int            `json:"size"`
	TotalElements int64          `json:"totalElements"`
	TotalPages    int            `json:"totalPages"`
	First         bool           `json:"first"`
	Last          bool           `json:"last"`
}

// ParseCoordinates reads "LAT,LNG" in decimal degrees.
func ParseCoordinates(s string) (lat, lng float64, err error) {
	a, b, ok := strings.Cut(s, ",")
	if !ok {
		return 0, 0, fmt.Errorf("coordinates %q: want LAT,LNG", s)
	}
	if lat, err = strconv.ParseFloat(strings.TrimSpace(a), 64); err != nil || lat < -90 || lat > 90 {
		return 0, 0, fmt.Errorf("coordinates %q: latitude must be between -90 and 90", s)
	}
	if lng, err = strconv.ParseFloat(strings.TrimSpace(b), 64); err != nil || lng < -180 || lng > 180 {
		return 0, 0, fmt.Errorf("coordinates %q: longitude must be between -180 and 180", s)
	}
	return lat, lng, nil
}
