package entity

import (
	"time"

	"github.com/google/uuid"
)

type RefundReason string

const (
	// RefundReasonLatePayment covers a checkout paid after its booking was closed.
	RefundReasonLatePayment RefundReason = "late_payment"
	// RefundReasonDuplicatePayment covers a second checkout paid for an already paid booking.
	RefundReasonDuplicatePayment RefundReason = "duplicate_payment"
)

// Refund is a compensating refund issued by the webhook reconciler. Customer
// cancellations are recorded on the payment row instead.
type Refund struct {
	ID              uuid.UUID    `db:"id"`
	BookingID       uuid.UUID    `db:"booking_id"`
	PaymentIntentID string       `db:"payment_intent_id"`
	RefundID        string       `db:"refund_id"`
	Reason          RefundReason `db:"reason"`
	CreatedAt       time.Time    `db:"created_at"`
}
