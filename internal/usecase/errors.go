package usecase

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidSeatSelection = errors.New("invalid seat selection")
	ErrSeatsUnavailable     = errors.New("seats unavailable")
	ErrInvalidState         = errors.New("invalid booking state")
	ErrNoPayment            = errors.New("no payment for booking")
	ErrSignatureInvalid     = errors.New("webhook signature invalid")
	ErrMissingCorrelation   = errors.New("webhook event carries no booking id")
	ErrProvider             = errors.New("payment provider error")
)

// SeatSelectionError names the seats behind ErrInvalidSeatSelection or ErrSeatsUnavailable.
type SeatSelectionError struct {
	Kind        error
	SeatIDs     []string
	SeatNumbers []string
}

func (e *SeatSelectionError) Error() string {
	names := e.SeatNumbers
	if len(names) == 0 {
		names = e.SeatIDs
	}
	return fmt.Sprintf("%s: [%s]", e.Kind, strings.Join(names, ", "))
}

func (e *SeatSelectionError) Unwrap() error { return e.Kind }

// PaymentSessionError reports a provider failure after the booking was committed.
// The booking stays pending and can be retried.
type PaymentSessionError struct {
	BookingID string
	OrderRef  string
	Err       error
}

func (e *PaymentSessionError) Error() string {
	return fmt.Sprintf("%s: create payment session for booking %s: %v", ErrProvider, e.BookingID, e.Err)
}

func (e *PaymentSessionError) Is(target error) bool { return target == ErrProvider }

func (e *PaymentSessionError) Unwrap() error { return e.Err }

func notFound(what, id string) error {
	return fmt.Errorf("%s %s %w", what, id, ErrNotFound)
}
