package entity

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

type Payment struct {
	Base
	BookingID         uuid.UUID     `db:"booking_id"`
	AmountCents       int64         `db:"amount_cents"`
	Currency          string        `db:"currency"`
	PaymentMethod     string        `db:"payment_method"`
	Status            PaymentStatus `db:"status"`
	ProviderSessionID *string       `db:"provider_session_id"`
	PaymentIntentID   *string       `db:"payment_intent_id"`
	RefundID          *string       `db:"refund_id"`
	PaidAt            *time.Time    `db:"paid_at"`
}
