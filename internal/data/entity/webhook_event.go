package entity

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent marks a provider event id as consumed.
type WebhookEvent struct {
	EventID    string     `db:"event_id"`
	EventType  string     `db:"event_type"`
	BookingID  *uuid.UUID `db:"booking_id"`
	ReceivedAt time.Time  `db:"received_at"`
}
