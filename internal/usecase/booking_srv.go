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
	"transport-booking/internal/ticket"
	"transport-booking/pkg/database"
	"transport-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const expireBatchSize = 100

type BookingService interface {
	GetUserBookings(ctx context.Context, principal utils.Principal, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	GetBooking(ctx context.Context, principal utils.Principal, bookingID string) (*response.BookingResponse, error)
	// Cancel releases the seats of a pending booking. Paid bookings go through CancelAndRefund.
	Cancel(ctx context.Context, principal utils.Principal, bookingID string) (*response.CancelBookingResponse, error)
	// ExpireStale cancels bookings still pending after the configured TTL.
	ExpireStale(ctx context.Context) (int, error)
	Ticket(ctx context.Context, principal utils.Principal, bookingID string) ([]byte, string, error)
}

type bookingService struct {
	repo       *repository.Repository
	tx         database.Transactor
	state      *StateMachine
	gateway    payment.Gateway
	notifier   notification.Notifier
	pendingTTL time.Duration
	currency   string
	location   *time.Location
	log        *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	tx database.Transactor,
	state *StateMachine,
	gateway payment.Gateway,
	notifier notification.Notifier,
	config *utils.Config,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:       repo,
		tx:         tx,
		state:      state,
		gateway:    gateway,
		notifier:   notifier,
		pendingTTL: config.Booking.PendingTTL,
		currency:   config.Payment.Currency,
		location:   config.Scheduler.Location(),
		log:        log.With(zap.String("service", "booking")),
	}
}

func (s *bookingService) GetUserBookings(ctx context.Context, principal utils.Principal, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	bookings, err := s.repo.Booking.FindByUserID(ctx, principal.UserID, req.Limit(), req.Offset())
	if err != nil {
		return nil, fmt.Errorf("get user bookings: %w", err)
	}

	total, err := s.repo.Booking.CountByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("count user bookings: %w", err)
	}

	data := make([]response.BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		data = append(data, response.BookingToResponse(b, nil))
	}

	return response.NewPaginatedResponse(data, req.Page, req.Limit(), total), nil
}

func (s *bookingService) GetBooking(ctx context.Context, principal utils.Principal, bookingID string) (*response.BookingResponse, error) {
	booking, err := loadOwnedBooking(ctx, s.repo, principal, bookingID)
	if err != nil {
		return nil, err
	}

	seats, err := s.heldSeats(ctx, booking.ID)
	if err != nil {
		return nil, err
	}

	resp := response.BookingToResponse(booking, seatNumbers(seats))
	return &resp, nil
}

func (s *bookingService) Cancel(ctx context.Context, principal utils.Principal, bookingID string) (*response.CancelBookingResponse, error) {
	booking, err := loadOwnedBooking(ctx, s.repo, principal, bookingID)
	if err != nil {
		return nil, err
	}

	changed, err := s.cancelPending(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &response.CancelBookingResponse{BookingID: booking.ID.String(), Status: entity.BookingStatusCancelled}, nil
	}
	s.closeCheckout(ctx, booking.ID)

	s.notifier.SendEmail(ctx, notification.BookingCancelledEmail(principal.Email, booking.OrderRef, false))
	s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
		Type:        notification.EventBookingCancelled,
		BookingID:   booking.ID,
		OrderRef:    booking.OrderRef,
		UserID:      booking.UserID,
		Status:      string(entity.BookingStatusCancelled),
		AmountCents: booking.TotalPriceCents,
	})

	return &response.CancelBookingResponse{
		BookingID: booking.ID.String(),
		Status:    entity.BookingStatusCancelled,
	}, nil
}

func (s *bookingService) ExpireStale(ctx context.Context) (int, error) {
	if s.pendingTTL <= 0 {
		return 0, nil
	}

	cutoff := time.Now().Add(-s.pendingTTL)
	ids, err := s.repo.Booking.FindPendingBookedBefore(ctx, cutoff, expireBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return expired, err
		}

		changed, err := s.cancelPending(ctx, id)
		if errors.Is(err, ErrInvalidState) {
			// paid or expired by a webhook in the meantime
			continue
		}
		if err != nil {
			s.log.Error("Failed to expire pending booking", zap.Error(err), zap.String("booking_id", id.String()))
			continue
		}
		if !changed {
			continue
		}

		expired++
		s.closeCheckout(ctx, id)
		s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
			Type:      notification.EventBookingCancelled,
			BookingID: id,
			Status:    string(entity.BookingStatusCancelled),
		})
	}

	if expired > 0 {
		s.log.Info("Expired abandoned bookings",
			zap.Int("expired", expired),
			zap.Duration("ttl", s.pendingTTL),
		)
	}
	return expired, nil
}

func (s *bookingService) Ticket(ctx context.Context, principal utils.Principal, bookingID string) ([]byte, string, error) {
	booking, err := loadOwnedBooking(ctx, s.repo, principal, bookingID)
	if err != nil {
		return nil, "", err
	}
	if booking.Status != entity.BookingStatusPaid {
		return nil, "", fmt.Errorf("%w: booking %s is %s, tickets exist for paid bookings only", ErrInvalidState, booking.ID, booking.Status)
	}

	trip, err := s.repo.Trip.FindByID(ctx, booking.TripID)
	if err != nil || trip == nil {
		return nil, "", fmt.Errorf("load trip %s for ticket: %w", booking.TripID, errors.Join(err, ErrNotFound))
	}
	route, err := s.repo.Route.FindByID(ctx, trip.RouteID)
	if err != nil || route == nil {
		return nil, "", fmt.Errorf("load route %s for ticket: %w", trip.RouteID, errors.Join(err, ErrNotFound))
	}
	schedule, err := s.repo.Schedule.FindByID(ctx, booking.ScheduleID)
	if err != nil || schedule == nil {
		return nil, "", fmt.Errorf("load schedule %s for ticket: %w", booking.ScheduleID, errors.Join(err, ErrNotFound))
	}

	seats, err := s.heldSeats(ctx, booking.ID)
	if err != nil {
		return nil, "", err
	}

	data := ticket.Data{
		OrderRef:      booking.OrderRef,
		Email:         principal.Email,
		DepartureCity: route.DepartureCity,
		ArrivalCity:   route.ArrivalCity,
		Label:         schedule.Label,
		DepartureTime: schedule.DepartureTime.In(s.location),
		ArrivalTime:   schedule.ArrivalTime.In(s.location),
		Seats:         seatNumbers(seats),
		AmountCents:   booking.TotalPriceCents,
		Currency:      s.currency,
		IssuedAt:      time.Now().In(s.location),
	}
	if user, err := s.repo.User.FindByID(ctx, booking.UserID); err == nil && user != nil {
		data.PassengerName = user.Name
		data.Email = user.Email
	}
	if vehicle, err := s.repo.Vehicle.FindByID(ctx, trip.VehicleID); err == nil && vehicle != nil {
		data.Vehicle = vehicle.Registration
	}

	return ticket.Render(data)
}

func (s *bookingService) cancelPending(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	var changed bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		changed, err = s.state.Transition(ctx, bookingID, entity.BookingStatusCancelled, entity.BookingStatusPending)
		if err != nil || !changed {
			return err
		}
		return s.repo.Payment.MarkFailed(ctx, bookingID)
	})
	return changed, err
}

// closeCheckout expires the checkout of a cancelled booking. Payments that still land
// are refunded by the webhook reconciler.
func (s *bookingService) closeCheckout(ctx context.Context, bookingID uuid.UUID) {
	if err := expireCheckout(ctx, s.repo, s.gateway, bookingID); err != nil {
		s.log.Warn("Checkout session of cancelled booking left open",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
	}
}

func (s *bookingService) heldSeats(ctx context.Context, bookingID uuid.UUID) ([]*entity.Seat, error) {
	held, err := s.repo.BookingSeat.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("load booking seats: %w", err)
	}

	ids := make([]uuid.UUID, len(held))
	for i, h := range held {
		ids[i] = h.SeatID
	}

	seats, err := s.repo.Seat.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load seats: %w", err)
	}
	return seats, nil
}
