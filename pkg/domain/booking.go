package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BookingStatus is the lifecycle state of a reservation.
type BookingStatus string

const (
	BookingReserved  BookingStatus = "RESERVED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// ParseBookingStatus normalizes the backend's status strings. The backend
// spells the cancelled state "CANCELED".
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RESERVED":
		return BookingReserved, nil
	case "CANCELLED", "CANCELED":
		return BookingCancelled, nil
	}
	return "", fmt.Errorf("unknown booking status %q", s)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("booking status: %w", err)
	}
	parsed, err := ParseBookingStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Label is the human-readable form used in listings.
func (s BookingStatus) Label() string {
	switch s {
	case BookingReserved:
		return "reserved"
	case BookingCancelled:
		return "cancelled"
	}
	return strings.ToLower(string(s))
}

// Booking is a reservation owned by the logged-in user.
type Booking struct {
	ID         int64         `json:"id"`
	SpaceID    int64         `json:"spaceId,omitempty"`
	Address    string        `json:"address"`
	StartTime  LocalTime     `json:"startTime"`
	EndTime    LocalTime     `json:"endTime"`
	Status     BookingStatus `json:"status"`
	TotalPrice int64         `json:"totalPrice"`
}

// Cancellable reports whether the booking can still be cancelled.
func (b Booking) Cancellable() bool {
	return b.Status == BookingReserved
}

// UnmarshalJSON accepts both the short field names and the backend's DTO
// names (bookingId, parkingSpaceId, parkingSpaceAddress).
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	var wire struct {
		plain
		BookingID           *int64 `json:"bookingId"`
		ParkingSpaceID      *int64 `json:"parkingSpaceId"`
		ParkingSpaceAddress string `json:"parkingSpaceAddress"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*b = Booking(wire.plain)
	if wire.BookingID != nil {
		b.ID = *wire.BookingID
	}
	if wire.ParkingSpaceID != nil {
		b.SpaceID = *wire.ParkingSpaceID
	}
	if b.Address == "" {
		b.Address = wire.ParkingSpaceAddress
	}
	return nil
}
