package usecase

import (
	"context"
	"fmt"
	"slices"

	"transport-booking/internal/data/entity"
	"transport-booking/internal/data/repository"
	"transport-booking/pkg/database"
	"transport-booking/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// allowedSources lists, per target status, the statuses a booking may leave to reach it.
var allowedSources = map[entity.BookingStatus][]entity.BookingStatus{
	entity.BookingStatusPaid:      {entity.BookingStatusPending},
	entity.BookingStatusFailed:    {entity.BookingStatusPending},
	entity.BookingStatusCancelled: {entity.BookingStatusPending, entity.BookingStatusPaid},
}

// StateMachine is the only writer of bookings.status.
type StateMachine struct {
	repo *repository.Repository
	tx   database.Transactor
	log  *zap.Logger
}

func NewStateMachine(repo *repository.Repository, tx database.Transactor, log *zap.Logger) *StateMachine {
	return &StateMachine{
		repo: repo,
		tx:   tx,
		log:  log.With(zap.String("service", "booking_state")),
	}
}

// Transition moves the booking to `to`. With no `from` every allowed source is accepted,
// otherwise only the listed ones. A booking already in `to` is left alone and reported
// as unchanged. Reaching failed or cancelled releases the held seats in the same
// transaction.
func (m *StateMachine) Transition(ctx context.Context, bookingID uuid.UUID, to entity.BookingStatus, from ...entity.BookingStatus) (bool, error) {
	allowed := allowedSources[to]
	if len(from) == 0 {
		from = allowed
	}
	for _, s := range from {
		if !slices.Contains(allowed, s) {
			return false, fmt.Errorf("%w: %s -> %s is not a valid transition", ErrInvalidState, s, to)
		}
	}
	if len(from) == 0 {
		return false, fmt.Errorf("%w: nothing transitions to %s", ErrInvalidState, to)
	}

	var changed bool
	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ok, err := m.repo.Booking.TransitionStatus(ctx, bookingID, from, to)
		if err != nil {
			return err
		}

		if !ok {
			booking, err := m.repo.Booking.FindByID(ctx, bookingID)
			if err != nil {
				return err
			}
			if booking == nil {
				return notFound("booking", bookingID.String())
			}
			if booking.Status == to {
				return nil
			}
			return fmt.Errorf("%w: booking %s is %s and cannot become %s", ErrInvalidState, bookingID, booking.Status, to)
		}

		if !to.Holds() {
			released, err := m.repo.BookingSeat.DeleteByBookingID(ctx, bookingID)
			if err != nil {
				return err
			}
			m.log.Info("Seats released",
				zap.String("booking_id", bookingID.String()),
				zap.Int64("seats", released),
				zap.String("status", string(to)),
			)
		}

		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		metrics.BookingTransitionsTotal.WithLabelValues(string(to)).Inc()
		m.log.Info("Booking status changed",
			zap.String("booking_id", bookingID.String()),
			zap.String("to", string(to)),
		)
	}

	return changed, nil
}
