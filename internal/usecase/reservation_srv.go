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
	"transport-booking/pkg/database"
	"transport-booking/pkg/metrics"
	"transport-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ReservationService interface {
	Reserve(ctx context.Context, principal utils.Principal, req *request.ReservationRequest) (*response.ReservationResponse, error)
}

type reservationService struct {
	repo     *repository.Repository
	tx       database.Transactor
	payments PaymentService
	notifier notification.Notifier
	currency string
	log      *zap.Logger
}

func NewReservationService(
	repo *repository.Repository,
	tx database.Transactor,
	payments PaymentService,
	notifier notification.Notifier,
	config *utils.Config,
	log *zap.Logger,
) ReservationService {
	return &reservationService{
		repo:     repo,
		tx:       tx,
		payments: payments,
		notifier: notifier,
		currency: config.Payment.Currency,
		log:      log.With(zap.String("service", "reservation")),
	}
}

func (s *reservationService) Reserve(ctx context.Context, principal utils.Principal, req *request.ReservationRequest) (*response.ReservationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Reservation validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid trip ID %s", ErrValidation, req.TripID)
	}
	scheduleID, err := uuid.Parse(req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, req.ScheduleID)
	}

	trip, err := s.repo.Trip.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if trip == nil {
		return nil, notFound("trip", req.TripID)
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if schedule == nil || schedule.TripID != trip.ID {
		return nil, notFound("schedule", req.ScheduleID)
	}

	catalog, err := s.repo.Seat.FindBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("load seat catalog: %w", err)
	}

	seats, err := selectSeats(catalog, req.SeatIDs)
	if err != nil {
		metrics.ReservationsTotal.WithLabelValues("invalid_seats").Inc()
		return nil, err
	}

	now := time.Now()
	booking := &entity.Booking{
		ID:              uuid.New(),
		OrderRef:        utils.GenerateOrderRef(now),
		UserID:          principal.UserID,
		TripID:          trip.ID,
		ScheduleID:      schedule.ID,
		Status:          entity.BookingStatusPending,
		TotalPriceCents: totalPrice(trip.PriceCents, seats),
		SeatCount:       len(seats),
		BookedAt:        now,
		UpdatedAt:       now,
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		held, err := s.repo.BookingSeat.FindHeldSeatIDs(ctx, scheduleID)
		if err != nil {
			return err
		}
		if conflict := overlap(seats, held); conflict != nil {
			return conflict
		}

		if err := s.repo.Booking.Create(ctx, booking); err != nil {
			return err
		}

		rows := make([]*entity.BookingSeat, len(seats))
		for i, seat := range seats {
			rows[i] = &entity.BookingSeat{
				BookingID:  booking.ID,
				ScheduleID: scheduleID,
				SeatID:     seat.ID,
				CreatedAt:  now,
			}
		}
		return s.repo.BookingSeat.CreateBatch(ctx, rows)
	})

	if errors.Is(err, repository.ErrSeatAlreadyHeld) {
		// a concurrent reservation committed first; name the seats it took
		held, herr := s.repo.BookingSeat.FindHeldSeatIDs(ctx, scheduleID)
		if herr != nil {
			return nil, fmt.Errorf("reload held seats: %w", herr)
		}
		err = overlap(seats, held)
		if err == nil {
			err = &SeatSelectionError{Kind: ErrSeatsUnavailable, SeatIDs: req.SeatIDs}
		}
	}
	if err != nil {
		if errors.Is(err, ErrSeatsUnavailable) {
			metrics.ReservationsTotal.WithLabelValues("conflict").Inc()
			s.log.Info("Reservation rejected, seats taken",
				zap.String("schedule_id", req.ScheduleID),
				zap.Error(err),
			)
			return nil, err
		}
		metrics.ReservationsTotal.WithLabelValues("error").Inc()
		s.log.Error("Failed to create booking", zap.Error(err), zap.String("schedule_id", req.ScheduleID))
		return nil, fmt.Errorf("create booking: %w", err)
	}

	metrics.ReservationsTotal.WithLabelValues("created").Inc()
	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("order_ref", booking.OrderRef),
		zap.Int("seats", booking.SeatCount),
		zap.Int64("total_price_cents", booking.TotalPriceCents),
	)

	s.notifier.PublishBookingEvent(ctx, notification.BookingEvent{
		Type:        notification.EventBookingCreated,
		BookingID:   booking.ID,
		OrderRef:    booking.OrderRef,
		UserID:      booking.UserID,
		Status:      string(booking.Status),
		AmountCents: booking.TotalPriceCents,
	})

	resp := &response.ReservationResponse{
		BookingID:       booking.ID.String(),
		OrderRef:        booking.OrderRef,
		Status:          booking.Status,
		TotalPriceCents: booking.TotalPriceCents,
		Currency:        s.currency,
		SeatNumbers:     seatNumbers(seats),
	}

	session, err := s.payments.CreateSession(ctx, booking, principal.Email)
	if err != nil {
		return nil, &PaymentSessionError{BookingID: booking.ID.String(), OrderRef: booking.OrderRef, Err: err}
	}

	resp.PaymentURL = session.URL
	if !session.ExpiresAt.IsZero() {
		resp.ExpiresAt = &session.ExpiresAt
	}

	return resp, nil
}

// selectSeats resolves the requested ids against the schedule catalog, in request order.
func selectSeats(catalog []*entity.Seat, seatIDs []string) ([]*entity.Seat, error) {
	byID := make(map[string]*entity.Seat, len(catalog))
	for _, seat := range catalog {
		byID[seat.ID.String()] = seat
	}

	selected := make([]*entity.Seat, 0, len(seatIDs))
	var unknown []string
	for _, id := range seatIDs {
		parsed, err := uuid.Parse(id)
		if err != nil {
			unknown = append(unknown, id)
			continue
		}
		seat, ok := byID[parsed.String()]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		selected = append(selected, seat)
	}

	if len(unknown) > 0 {
		return nil, &SeatSelectionError{Kind: ErrInvalidSeatSelection, SeatIDs: unknown}
	}
	return selected, nil
}

// overlap returns a SeatsUnavailable error naming the requested seats found in held.
func overlap(seats []*entity.Seat, held []uuid.UUID) error {
	taken := make(map[uuid.UUID]struct{}, len(held))
	for _, id := range held {
		taken[id] = struct{}{}
	}

	var conflict *SeatSelectionError
	for _, seat := range seats {
		if _, ok := taken[seat.ID]; !ok {
			continue
		}
		if conflict == nil {
			conflict = &SeatSelectionError{Kind: ErrSeatsUnavailable}
		}
		conflict.SeatIDs = append(conflict.SeatIDs, seat.ID.String())
		conflict.SeatNumbers = append(conflict.SeatNumbers, seat.SeatNumber)
	}

	if conflict == nil {
		return nil
	}
	return conflict
}

// totalPrice is N times the trip price plus every seat's extra fee, in cents.
func totalPrice(tripPriceCents int64, seats []*entity.Seat) int64 {
	total := tripPriceCents * int64(len(seats))
	for _, seat := range seats {
		total += seat.ExtraFeeCents
	}
	return total
}

func seatNumbers(seats []*entity.Seat) []string {
	out := make([]string, len(seats))
	for i, seat := range seats {
		out[i] = seat.SeatNumber
	}
	return out
}
