package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusFailed    BookingStatus = "failed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Holds reports whether a booking in this status keeps its seats.
func (s BookingStatus) Holds() bool {
	return s == BookingStatusPending || s == BookingStatusPaid
}

type Booking struct {
	ID              uuid.UUID     `db:"id"`
	OrderRef        string        `db:"order_ref"`
	UserID          uuid.UUID     `db:"user_id"`
	TripID          uuid.UUID     `db:"trip_id"`
	ScheduleID      uuid.UUID     `db:"schedule_id"`
	Status          BookingStatus `db:"status"`
	TotalPriceCents int64         `db:"total_price_cents"`
	SeatCount       int           `db:"seat_count"`
	PaymentIntentID *string       `db:"payment_intent_id"`
	BookedAt        time.Time     `db:"booked_at"`
	UpdatedAt       time.Time     `db:"updated_at"`
}
