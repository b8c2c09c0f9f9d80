package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transport-booking/internal/data/entity"
	"transport-booking/internal/data/repository"
	"transport-booking/internal/dto/response"
	"transport-booking/internal/notification"
	"transport-booking/internal/payment"
	"transport-booking/pkg/database"
	"transport-booking/pkg/metrics"
	"transport-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	webhookApplied   = "applied"
	webhookNoop      = "noop"
	webhookDuplicate = "duplicate"
	webhookStale     = "stale"
	webhookIgnored   = "ignored"
	webhookRefunded  = "refunded"
)

// errDuplicatePayment rolls back a completion whose booking was already paid by another checkout.
var errDuplicatePayment = errors.New("booking already paid by another checkout")

type WebhookService interface {
	Handle(ctx context.Context, signatureHeader string, payload []byte) (*response.WebhookAck, error)
}

type webhookService struct {
	repo     *repository.Repository
	tx       database.Transactor
	state    *StateMachine
	provider PaymentProvider
	notifier notification.Notifier
	currency string
	log      *zap.Logger
}

func NewWebhookService(
	repo *repository.Repository,
	tx database.Transactor,
	state *StateMachine,
	provider PaymentProvider,
	notifier notification.Notifier,
	config *utils.Config,
	log *zap.Logger,
) WebhookService {
	return &webhookService{
		repo:     repo,
		tx:       tx,
		state:    state,
		provider: provider,
		notifier: notifier,
		currency: config.Payment.Currency,
		log:      log.With(zap.String("service", "webhook")),
	}
}

func (s *webhookService) Handle(ctx context.Context, signatureHeader string, payload []byte) (*response.WebhookAck, error) {
	event, err := s.provider.ParseEvent(payload, signatureHeader)
	if err != nil {
		if errors.Is(err, payment.ErrInvalidSignature) {
			metrics.WebhookEventsTotal.WithLabelValues("unknown", "bad_signature").Inc()
			s.log.Warn("Rejected webhook with invalid signature", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
		}
		metrics.WebhookEventsTotal.WithLabelValues("unknown", "malformed").Inc()
		s.log.Warn("Rejected malformed webhook", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrMissingCorrelation, err)
	}

	var result string
	switch e := event.(type) {
	case payment.CheckoutCompleted:
		result, err = s.onCompleted(ctx, e)
	case payment.CheckoutExpired:
		result, err = s.onExpired(ctx, e)
	case payment.ChargeRefunded:
		result, err = s.onRefunded(ctx, e)
	default:
		result = webhookIgnored
		s.log.Debug("Ignoring webhook event", zap.String("event_id", e.EventID()), zap.String("type", e.EventType()))
	}

	if err != nil {
		label := "error"
		if errors.Is(err, ErrMissingCorrelation) {
			label = "missing_correlation"
		}
		metrics.WebhookEventsTotal.WithLabelValues(event.EventType(), label).Inc()
		s.log.Error("Failed to apply webhook event",
			zap.Error(err),
			zap.String("event_id", event.EventID()),
			zap.String("type", event.EventType()),
		)
		return nil, err
	}

	metrics.WebhookEventsTotal.WithLabelValues(event.EventType(), result).Inc()
	return &response.WebhookAck{EventID: event.EventID(), Type: event.EventType(), Result: result}, nil
}

func (s *webhookService) onCompleted(ctx context.Context, e payment.CheckoutCompleted) (string, error) {
	bookingID, err := correlate(e.BookingID, e.ID)
	if err != nil {
		return "", err
	}

	result, err := s.apply(ctx, e, bookingID, func(ctx context.Context) (bool, error) {
		changed, err := s.state.Transition(ctx, bookingID, entity.BookingStatusPaid, entity.BookingStatusPending)
		if err != nil {
			return false, err
		}
		if !changed {
			return false, s.checkSameCheckout(ctx, bookingID, e.PaymentIntentID)
		}

		var intentID *string
		if e.PaymentIntentID != "" {
			intentID = &e.PaymentIntentID
			if err := s.repo.Booking.SetPaymentIntent(ctx, bookingID, e.PaymentIntentID); err != nil {
				return false, err
			}
		}

		updated, err := s.repo.Payment.MarkSucceeded(ctx, bookingID, intentID, time.Now())
		if err != nil || updated {
			return true, err
		}
		return true, s.recordLatePayment(ctx, bookingID, e, intentID)
	})
	switch {
	case isStateConflict(err):
		return s.refundUnbooked(ctx, e, bookingID, entity.RefundReasonLatePayment)
	case errors.Is(err, errDuplicatePayment):
		return s.refundUnbooked(ctx, e, bookingID, entity.RefundReasonDuplicatePayment)
	case err != nil || result != webhookApplied:
		return result, err
	}

	s.afterPaid(ctx, bookingID, e.CustomerEmail)
	return result, nil
}

// checkSameCheckout returns errDuplicatePayment when a paid booking was settled by
// a different payment intent.
func (s *webhookService) checkSameCheckout(ctx context.Context, bookingID uuid.UUID, intentID string) error {
	if intentID == "" {
		return nil
	}
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil || booking.PaymentIntentID == nil || *booking.PaymentIntentID == intentID {
		return nil
	}
	return fmt.Errorf("%w: booking %s settled by %s, received %s", errDuplicatePayment, bookingID, *booking.PaymentIntentID, intentID)
}

func (s *webhookService) onExpired(ctx context.Context, e payment.CheckoutExpired) (string, error) {
	bookingID, err := correlate(e.BookingID, e.ID)
	if err != nil {
		return "", err
	}

	result, err := s.apply(ctx, e, bookingID, func(ctx context.Context) (bool, error) {
		record, err := s.repo.Payment.FindByBookingID(ctx, bookingID)
		if err != nil {
			return false, err
		}
		if record != nil && record.ProviderSessionID != nil && *record.ProviderSessionID != e.SessionID {
			s.log.Info("Expired checkout session was superseded",
				zap.String("booking_id", bookingID.String()),
				zap.String("session_id", e.SessionID),
				zap.String("current_session_id", *record.ProviderSessionID),
			)
			return false, nil
		}

		changed, err := s.state.Transition(ctx, bookingID, entity.BookingStatusFailed, entity.BookingStatusPending)
		if err != nil || !changed {
			return changed, err
		}
		return true, s.repo.Payment.MarkFailed(ctx, bookingID)
	})
	if isStateConflict(err) {
		return s.recordStale(ctx, e, bookingID)
	}
	if err != nil || result != webhookApplied {
		return result, err
	}

	if booking, err := s.repo.Booking.FindByID(ctx, bookingID); err == nil && booking != nil {
		s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
			Type:        notification.EventBookingFailed,
			BookingID:   booking.ID,
			OrderRef:    booking.OrderRef,
			UserID:      booking.UserID,
			Status:      string(booking.Status),
			AmountCents: booking.TotalPriceCents,
		})
	}
	return result, nil
}

// onRefunded cancels a paid booking whose charge was refunded at the provider, which
// settles cancellations whose local update failed after the refund went through.
func (s *webhookService) onRefunded(ctx context.Context, e payment.ChargeRefunded) (string, error) {
	bookingID, err := s.correlateCharge(ctx, e)
	if err != nil {
		return "", err
	}
	if bookingID == uuid.Nil {
		s.log.Debug("Refunded charge matches no booking",
			zap.String("event_id", e.ID),
			zap.String("payment_intent_id", e.PaymentIntentID),
		)
		return webhookIgnored, nil
	}

	result, err := s.apply(ctx, e, bookingID, func(ctx context.Context) (bool, error) {
		booking, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return false, err
		}
		if booking == nil {
			return false, notFound("booking", bookingID.String())
		}
		record, err := s.repo.Payment.FindByBookingID(ctx, bookingID)
		if err != nil {
			return false, err
		}

		settledBy := booking.PaymentIntentID
		if record != nil && record.PaymentIntentID != nil {
			settledBy = record.PaymentIntentID
		}
		if e.PaymentIntentID != "" && settledBy != nil && *settledBy != e.PaymentIntentID {
			// a compensating refund of another checkout
			return false, nil
		}

		changed, err := s.state.Transition(ctx, bookingID, entity.BookingStatusCancelled, entity.BookingStatusPaid)
		if err != nil || !changed {
			return changed, err
		}
		return true, s.repo.Payment.MarkRefunded(ctx, bookingID, e.RefundID)
	})
	if isStateConflict(err) {
		return s.recordStale(ctx, e, bookingID)
	}
	if err != nil || result != webhookApplied {
		return result, err
	}

	if booking, err := s.repo.Booking.FindByID(ctx, bookingID); err == nil && booking != nil {
		if user, err := s.repo.User.FindByID(ctx, booking.UserID); err == nil && user != nil {
			s.notifier.SendEmail(ctx, notification.BookingCancelledEmail(user.Email, booking.OrderRef, true))
		}
		s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
			Type:        notification.EventBookingRefunded,
			BookingID:   booking.ID,
			OrderRef:    booking.OrderRef,
			UserID:      booking.UserID,
			Status:      string(booking.Status),
			AmountCents: booking.TotalPriceCents,
		})
	}
	return result, nil
}

// correlateCharge finds the booking of a refunded charge by metadata, then by payment
// intent. uuid.Nil means the charge belongs to no booking.
func (s *webhookService) correlateCharge(ctx context.Context, e payment.ChargeRefunded) (uuid.UUID, error) {
	if e.BookingID != "" {
		return correlate(e.BookingID, e.ID)
	}
	if e.PaymentIntentID == "" {
		return uuid.Nil, fmt.Errorf("%w: event %s has neither booking nor payment intent", ErrMissingCorrelation, e.ID)
	}

	record, err := s.repo.Payment.FindByPaymentIntentID(ctx, e.PaymentIntentID)
	if err != nil {
		return uuid.Nil, err
	}
	if record == nil {
		return uuid.Nil, nil
	}
	return record.BookingID, nil
}

// apply records the event in the inbox and runs transition in the same transaction.
// Redeliveries of a recorded event are acknowledged without side effects. State
// conflicts roll back and are returned for the caller to settle.
func (s *webhookService) apply(ctx context.Context, e payment.Event, bookingID uuid.UUID, transition func(ctx context.Context) (bool, error)) (string, error) {
	result := webhookNoop
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		fresh, err := s.repo.WebhookEvent.Record(ctx, &entity.WebhookEvent{
			EventID:    e.EventID(),
			EventType:  e.EventType(),
			BookingID:  &bookingID,
			ReceivedAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if !fresh {
			result = webhookDuplicate
			return nil
		}

		changed, err := transition(ctx)
		if err != nil {
			return err
		}
		if changed {
			result = webhookApplied
		}
		return nil
	})

	if isStateConflict(err) || errors.Is(err, errDuplicatePayment) {
		s.log.Warn("Webhook event does not apply to booking",
			zap.Error(err),
			zap.String("event_id", e.EventID()),
			zap.String("booking_id", bookingID.String()),
		)
		return "", err
	}
	if err != nil {
		return "", err
	}

	s.log.Info("Webhook event processed",
		zap.String("event_id", e.EventID()),
		zap.String("type", e.EventType()),
		zap.String("booking_id", bookingID.String()),
		zap.String("result", result),
	)
	return result, nil
}

// recordStale stores an event whose transition was rolled back so redeliveries stop early.
func (s *webhookService) recordStale(ctx context.Context, e payment.Event, bookingID uuid.UUID) (string, error) {
	fresh, err := s.repo.WebhookEvent.Record(ctx, &entity.WebhookEvent{
		EventID:    e.EventID(),
		EventType:  e.EventType(),
		BookingID:  &bookingID,
		ReceivedAt: time.Now(),
	})
	if err != nil {
		return "", err
	}
	if !fresh {
		return webhookDuplicate, nil
	}
	return webhookStale, nil
}

// refundUnbooked gives the money back for a checkout the booking cannot accept: the
// booking was closed or deleted before the payment landed, or another checkout
// already paid it.
func (s *webhookService) refundUnbooked(ctx context.Context, e payment.CheckoutCompleted, bookingID uuid.UUID, reason entity.RefundReason) (string, error) {
	refunded, err := s.alreadyRefunded(ctx, bookingID, e.PaymentIntentID)
	if err != nil {
		return "", err
	}
	if e.PaymentIntentID == "" || refunded {
		return s.recordStale(ctx, e, bookingID)
	}

	refundID, err := s.provider.Refund(ctx, e.PaymentIntentID)
	if err != nil {
		s.log.Error("Failed to refund payment for unavailable booking",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("payment_intent_id", e.PaymentIntentID),
		)
		return "", fmt.Errorf("%w: refund %s: %v", ErrProvider, e.PaymentIntentID, err)
	}

	if _, err := s.repo.Refund.Create(ctx, &entity.Refund{
		ID:              uuid.New(),
		BookingID:       bookingID,
		PaymentIntentID: e.PaymentIntentID,
		RefundID:        refundID,
		Reason:          reason,
		CreatedAt:       time.Now(),
	}); err != nil {
		return "", err
	}
	if _, err := s.recordStale(ctx, e, bookingID); err != nil {
		return "", err
	}

	metrics.CompensatingRefundsTotal.WithLabelValues(string(reason)).Inc()
	s.log.Warn("Refunded payment for unavailable booking",
		zap.String("booking_id", bookingID.String()),
		zap.String("payment_intent_id", e.PaymentIntentID),
		zap.String("refund_id", refundID),
		zap.String("reason", string(reason)),
	)

	if reason != entity.RefundReasonLatePayment {
		return webhookRefunded, nil
	}
	if booking, err := s.repo.Booking.FindByID(ctx, bookingID); err == nil && booking != nil {
		if e.CustomerEmail != "" {
			s.notifier.SendEmail(ctx, notification.BookingCancelledEmail(e.CustomerEmail, booking.OrderRef, true))
		}
		s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
			Type:        notification.EventBookingRefunded,
			BookingID:   booking.ID,
			OrderRef:    booking.OrderRef,
			UserID:      booking.UserID,
			Status:      string(booking.Status),
			AmountCents: booking.TotalPriceCents,
		})
	}
	return webhookRefunded, nil
}

// alreadyRefunded reports whether the intent was refunded before, by this reconciler
// or by a customer cancellation.
func (s *webhookService) alreadyRefunded(ctx context.Context, bookingID uuid.UUID, intentID string) (bool, error) {
	if intentID == "" {
		return false, nil
	}
	refund, err := s.repo.Refund.FindByPaymentIntentID(ctx, intentID)
	if err != nil || refund != nil {
		return refund != nil, err
	}

	record, err := s.repo.Payment.FindByBookingID(ctx, bookingID)
	if err != nil {
		return false, err
	}
	return record != nil && record.Status == entity.PaymentStatusRefunded &&
		record.PaymentIntentID != nil && *record.PaymentIntentID == intentID, nil
}

func (s *webhookService) recordLatePayment(ctx context.Context, bookingID uuid.UUID, e payment.CheckoutCompleted, intentID *string) error {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking == nil {
		return notFound("booking", bookingID.String())
	}

	now := time.Now()
	return s.repo.Payment.Upsert(ctx, &entity.Payment{
		Base:              entity.NewBase(now),
		BookingID:         bookingID,
		AmountCents:       booking.TotalPriceCents,
		Currency:          s.currency,
		PaymentMethod:     "card",
		Status:            entity.PaymentStatusSucceeded,
		ProviderSessionID: &e.SessionID,
		PaymentIntentID:   intentID,
		PaidAt:            &now,
	})
}

func (s *webhookService) afterPaid(ctx context.Context, bookingID uuid.UUID, customerEmail string) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil || booking == nil {
		s.log.Warn("Paid booking not reloaded for notification", zap.String("booking_id", bookingID.String()))
		return
	}

	if customerEmail == "" {
		if user, err := s.repo.User.FindByID(ctx, booking.UserID); err == nil && user != nil {
			customerEmail = user.Email
		}
	}

	var numbers []string
	if held, err := s.repo.BookingSeat.FindByBookingID(ctx, booking.ID); err == nil {
		ids := make([]uuid.UUID, len(held))
		for i, h := range held {
			ids[i] = h.SeatID
		}
		if seats, err := s.repo.Seat.FindByIDs(ctx, ids); err == nil {
			numbers = seatNumbers(seats)
		}
	}

	currency := s.currency
	if record, err := s.repo.Payment.FindByBookingID(ctx, booking.ID); err == nil && record != nil {
		currency = record.Currency
	}

	s.notifier.SendEmail(ctx, notification.BookingConfirmedEmail(customerEmail, booking.OrderRef, booking.TotalPriceCents, currency, numbers))
	s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
		Type:        notification.EventBookingPaid,
		BookingID:   booking.ID,
		OrderRef:    booking.OrderRef,
		UserID:      booking.UserID,
		Status:      string(booking.Status),
		AmountCents: booking.TotalPriceCents,
	})
}

func correlate(rawBookingID, eventID string) (uuid.UUID, error) {
	if rawBookingID == "" {
		return uuid.Nil, fmt.Errorf("%w: event %s", ErrMissingCorrelation, eventID)
	}
	id, err := uuid.Parse(rawBookingID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: event %s has malformed booking id %q", ErrMissingCorrelation, eventID, rawBookingID)
	}
	return id, nil
}
