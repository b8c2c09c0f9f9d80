package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transport-booking/internal/data/entity"
	"transport-booking/internal/data/repository"
	"transport-booking/internal/dto/request"
	"transport-booking/internal/dto/response"
	"transport-booking/internal/notification"
	"transport-booking/internal/payment"
	"transport-booking/pkg/database"
	"transport-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type PaymentService interface {
	// CreateSession opens a provider checkout session for a pending booking and records
	// it on the booking's payment row. The booking status is not touched.
	CreateSession(ctx context.Context, booking *entity.Booking, customerEmail string) (*payment.CheckoutSession, error)
	Retry(ctx context.Context, principal utils.Principal, req *request.BookingIDRequest) (*response.PaymentSessionResponse, error)
	CancelAndRefund(ctx context.Context, principal utils.Principal, req *request.BookingIDRequest) (*response.CancelBookingResponse, error)
	GetPaymentStatus(ctx context.Context, principal utils.Principal, bookingID string) (*response.PaymentResponse, error)
}

type paymentService struct {
	repo       *repository.Repository
	tx         database.Transactor
	state      *StateMachine
	gateway    payment.Gateway
	notifier   notification.Notifier
	currency   string
	pendingTTL time.Duration
	log        *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	tx database.Transactor,
	state *StateMachine,
	gateway payment.Gateway,
	notifier notification.Notifier,
	config *utils.Config,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:       repo,
		tx:         tx,
		state:      state,
		gateway:    gateway,
		notifier:   notifier,
		currency:   config.Payment.Currency,
		pendingTTL: config.Booking.PendingTTL,
		log:        log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) CreateSession(ctx context.Context, booking *entity.Booking, customerEmail string) (*payment.CheckoutSession, error) {
	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutRequest{
		BookingID:     booking.ID,
		OrderRef:      booking.OrderRef,
		Description:   fmt.Sprintf("Booking %s (%d seats)", booking.OrderRef, booking.SeatCount),
		AmountCents:   booking.TotalPriceCents,
		Currency:      s.currency,
		CustomerEmail: customerEmail,
		ExpiresAt:     time.Now().Add(max(s.pendingTTL, payment.MinSessionLifetime)),
	})
	if err != nil {
		s.log.Error("Payment provider rejected checkout session",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	now := time.Now()
	record := &entity.Payment{
		Base:              entity.NewBase(now),
		BookingID:         booking.ID,
		AmountCents:       booking.TotalPriceCents,
		Currency:          s.currency,
		PaymentMethod:     "card",
		Status:            entity.PaymentStatusPending,
		ProviderSessionID: &session.ID,
	}
	if err := s.repo.Payment.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("record payment session: %w", err)
	}

	s.log.Info("Payment session opened",
		zap.String("booking_id", booking.ID.String()),
		zap.String("session_id", session.ID),
	)

	return session, nil
}

func (s *paymentService) Retry(ctx context.Context, principal utils.Principal, req *request.BookingIDRequest) (*response.PaymentSessionResponse, error) {
	booking, err := s.ownedBooking(ctx, principal, req)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusPending {
		return nil, fmt.Errorf("%w: booking %s is %s, only pending bookings can be paid", ErrInvalidState, booking.ID, booking.Status)
	}

	// one payable session per booking
	if err := expireCheckout(ctx, s.repo, s.gateway, booking.ID); err != nil {
		if errors.Is(err, payment.ErrSessionCompleted) {
			return nil, fmt.Errorf("%w: booking %s was paid, confirmation is on its way", ErrInvalidState, booking.ID)
		}
		s.log.Error("Previous checkout session not expired",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	session, err := s.CreateSession(ctx, booking, principal.Email)
	if err != nil {
		return nil, err
	}

	s.notifier.SendEmail(ctx, notification.Email{
		To:       principal.Email,
		Subject:  "Complete the payment for booking " + booking.OrderRef,
		Template: "payment_retry",
		Data: map[string]string{
			"order_ref":   booking.OrderRef,
			"payment_url": session.URL,
		},
	})

	resp := &response.PaymentSessionResponse{
		BookingID:  booking.ID.String(),
		PaymentURL: session.URL,
	}
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &session.ExpiresAt
	}
	return resp, nil
}

func (s *paymentService) CancelAndRefund(ctx context.Context, principal utils.Principal, req *request.BookingIDRequest) (*response.CancelBookingResponse, error) {
	booking, err := s.ownedBooking(ctx, principal, req)
	if err != nil {
		return nil, err
	}

	if booking.Status != entity.BookingStatusPaid {
		return nil, fmt.Errorf("%w: booking %s is %s, only paid bookings can be refunded", ErrInvalidState, booking.ID, booking.Status)
	}

	record, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if record == nil {
		return nil, fmt.Errorf("%w: booking %s", ErrNoPayment, booking.ID)
	}

	intentID := record.PaymentIntentID
	if intentID == nil {
		intentID = booking.PaymentIntentID
	}
	if intentID == nil || *intentID == "" {
		return nil, fmt.Errorf("%w: booking %s has no provider reference", ErrNoPayment, booking.ID)
	}

	refundID, err := s.gateway.Refund(ctx, *intentID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.state.Transition(ctx, booking.ID, entity.BookingStatusCancelled, entity.BookingStatusPaid); err != nil {
			return err
		}
		return s.repo.Payment.MarkRefunded(ctx, booking.ID, refundID)
	})
	if err != nil {
		// charge.refunded settles the booking; a retry gets the same refund back
		s.log.Error("Refund issued but booking not updated",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
			zap.String("refund_id", refundID),
		)
		return nil, fmt.Errorf("cancel refunded booking: %w", err)
	}

	s.notifier.SendEmail(ctx, notification.BookingCancelledEmail(principal.Email, booking.OrderRef, true))
	s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
		Type:        notification.EventBookingRefunded,
		BookingID:   booking.ID,
		OrderRef:    booking.OrderRef,
		UserID:      booking.UserID,
		Status:      string(entity.BookingStatusCancelled),
		AmountCents: booking.TotalPriceCents,
	})

	return &response.CancelBookingResponse{
		BookingID: booking.ID.String(),
		Status:    entity.BookingStatusCancelled,
		RefundID:  refundID,
	}, nil
}

func (s *paymentService) GetPaymentStatus(ctx context.Context, principal utils.Principal, bookingID string) (*response.PaymentResponse, error) {
	booking, err := s.ownedBooking(ctx, principal, &request.BookingIDRequest{BookingID: bookingID})
	if err != nil {
		return nil, err
	}

	record, err := s.repo.Payment.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("load payment: %w", err)
	}
	if record == nil {
		return nil, notFound("payment for booking", bookingID)
	}

	resp := response.PaymentToResponse(record)
	return &resp, nil
}

func (s *paymentService) ownedBooking(ctx context.Context, principal utils.Principal, req *request.BookingIDRequest) (*entity.Booking, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}
	return loadOwnedBooking(ctx, s.repo, principal, req.BookingID)
}

// loadOwnedBooking returns the booking when the caller owns it or is an admin.
func loadOwnedBooking(ctx context.Context, repo *repository.Repository, principal utils.Principal, rawID string) (*entity.Booking, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking ID %s", ErrValidation, rawID)
	}

	booking, err := repo.Booking.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load booking: %w", err)
	}
	if booking == nil {
		return nil, notFound("booking", rawID)
	}
	if booking.UserID != principal.UserID && !principal.IsAdmin {
		return nil, fmt.Errorf("%w: booking %s belongs to another user", ErrForbidden, rawID)
	}
	return booking, nil
}

// expireCheckout closes the provider session recorded for the booking, if any.
func expireCheckout(ctx context.Context, repo *repository.Repository, gateway payment.Gateway, bookingID uuid.UUID) error {
	record, err := repo.Payment.FindByBookingID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("load payment: %w", err)
	}
	if record == nil || record.ProviderSessionID == nil || *record.ProviderSessionID == "" {
		return nil
	}
	return gateway.ExpireSession(ctx, *record.ProviderSessionID)
}

func isStateConflict(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrNotFound)
}
