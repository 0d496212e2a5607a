package domain

import "encoding/json"

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationBookingCreated  NotificationType = "BOOKING_CREATED"
	NotificationBookingCanceled NotificationType = "BOOKING_CANCELED"
	NotificationBookingReminder NotificationType = "BOOKING_REMINDER"
	NotificationNewSpaceNearby  NotificationType = "NEW_SPACE_NEARBY"
	NotificationSystem          NotificationType = "SYSTEM"
)

// Notification represents a single notification event.
type Notification struct {
	ID        int64            `json:"id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	CreatedAt LocalTime        `json:"createdAt"`
}

// UnmarshalJSON reads the read flag under either "read" or "isRead".
func (n *Notification) UnmarshalJSON(data []byte) error {
	type plain Notification
	var wire struct {
		plain
		IsRead *bool `json:"isRead"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*n = Notification(wire.plain)
	if wire.IsRead != nil {
		n.Read = *wire.IsRead
	}
	return nil
}
