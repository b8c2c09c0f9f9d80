// Package payment talks to the card payment provider: hosted checkout sessions,
// refunds, and signed webhook events.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MetadataBookingID is the metadata key correlating provider objects with bookings.
const MetadataBookingID = "booking_id"

// MinSessionLifetime is the shortest checkout lifetime the provider accepts.
const MinSessionLifetime = 30 * time.Minute

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrSessionCompleted is returned when expiring a session the customer already paid.
	ErrSessionCompleted = errors.New("checkout session already completed")
)

type CheckoutRequest struct {
	BookingID     uuid.UUID
	OrderRef      string
	Description   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	// ExpiresAt closes the session; the provider clamps it to its own bounds.
	ExpiresAt time.Time
}

type CheckoutSession struct {
	ID        string
	URL       string
	ExpiresAt time.Time
}

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	// ExpireSession closes an open session so it can no longer be paid. Expiring an
	// expired session succeeds; a completed one returns ErrSessionCompleted.
	ExpireSession(ctx context.Context, sessionID string) error
	// Refund refunds the whole payment intent and returns the refund id. Repeated
	// calls for the same intent return the same refund.
	Refund(ctx context.Context, paymentIntentID string) (string, error)
}

type EventParser interface {
	ParseEvent(payload []byte, signatureHeader string) (Event, error)
}

// Event is one of CheckoutCompleted, CheckoutExpired, ChargeRefunded or UnknownEvent.
type Event interface {
	EventID() string
	EventType() string
}

type CheckoutCompleted struct {
	ID              string
	SessionID       string
	BookingID       string
	PaymentIntentID string
	CustomerEmail   string
}

type CheckoutExpired struct {
	ID        string
	SessionID string
	BookingID string
}

// ChargeRefunded reports a fully refunded charge. BookingID is empty when the
// charge carries no booking metadata.
type ChargeRefunded struct {
	ID              string
	BookingID       string
	PaymentIntentID string
	RefundID        string
}

type UnknownEvent struct {
	ID   string
	Type string
}

func (e CheckoutCompleted) EventID() string   { return e.ID }
func (e CheckoutCompleted) EventType() string { return eventCheckoutCompleted }
func (e CheckoutExpired) EventID() string     { return e.ID }
func (e CheckoutExpired) EventType() string   { return eventCheckoutExpired }
func (e ChargeRefunded) EventID() string      { return e.ID }
func (e ChargeRefunded) EventType() string    { return eventChargeRefunded }
func (e UnknownEvent) EventID() string        { return e.ID }
func (e UnknownEvent) EventType() string      { return e.Type }
