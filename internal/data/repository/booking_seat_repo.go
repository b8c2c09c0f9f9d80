package repository

import (
	"context"
	"fmt"
	"strings"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bookingSeatsScheduleSeatKey = "booking_seats_schedule_seat_key"

type BookingSeatRepository interface {
	// CreateBatch returns ErrSeatAlreadyHeld when any seat is held by another booking.
	CreateBatch(ctx context.Context, seats []*entity.BookingSeat) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingSeat, error)
	FindHeldSeatIDs(ctx context.Context, scheduleID uuid.UUID) ([]uuid.UUID, error)
	FindHeldSeatIDsByTrip(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
	DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) (int64, error)
}

type bookingSeatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingSeatRepository(db database.PgxIface, log *zap.Logger) BookingSeatRepository {
	return &bookingSeatRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking_seat")),
	}
}

func (r *bookingSeatRepository) CreateBatch(ctx context.Context, seats []*entity.BookingSeat) error {
	if len(seats) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO booking_seats (booking_id, schedule_id, seat_id, created_at) VALUES ")

	args := make([]any, 0, len(seats)*4)
	for i, seat := range seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 4
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4)
		args = append(args, seat.BookingID, seat.ScheduleID, seat.SeatID, seat.CreatedAt)
	}

	_, err := database.Conn(ctx, r.db).Exec(ctx, sb.String(), args...)
	if isUniqueViolation(err, bookingSeatsScheduleSeatKey) {
		r.log.Warn("Seat hold rejected by unique key",
			zap.String("booking_id", seats[0].BookingID.String()),
			zap.String("schedule_id", seats[0].ScheduleID.String()),
		)
		return ErrSeatAlreadyHeld
	}
	if err != nil {
		r.log.Error("Failed to create booking seats",
			zap.Error(err),
			zap.String("booking_id", seats[0].BookingID.String()),
		)
		return fmt.Errorf("create booking seats for %s: %w", seats[0].BookingID.String(), err)
	}

	return nil
}

func (r *bookingSeatRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.BookingSeat, error) {
	query := `
		SELECT booking_id, schedule_id, seat_id, created_at
		FROM booking_seats
		WHERE booking_id = $1
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to find booking seats",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find booking seats for %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var seats []*entity.BookingSeat
	for rows.Next() {
		var s entity.BookingSeat
		if err := rows.Scan(&s.BookingID, &s.ScheduleID, &s.SeatID, &s.CreatedAt); err != nil {
			r.log.Error("Failed to scan booking seat", zap.Error(err))
			return nil, fmt.Errorf("scan booking seat: %w", err)
		}
		seats = append(seats, &s)
	}

	return seats, rows.Err()
}

// Rows only exist for pending and paid bookings, so every row is an occupied seat.
func (r *bookingSeatRepository) FindHeldSeatIDs(ctx context.Context, scheduleID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT seat_id FROM booking_seats WHERE schedule_id = $1`
	return r.seatIDs(ctx, query, scheduleID)
}

func (r *bookingSeatRepository) FindHeldSeatIDsByTrip(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT bs.seat_id
		FROM booking_seats bs
		INNER JOIN schedules s ON s.id = bs.schedule_id
		WHERE s.trip_id = $1
	`
	return r.seatIDs(ctx, query, tripID)
}

func (r *bookingSeatRepository) DeleteByBookingID(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	query := `DELETE FROM booking_seats WHERE booking_id = $1`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to release booking seats",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return 0, fmt.Errorf("release seats of booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *bookingSeatRepository) seatIDs(ctx context.Context, query string, arg uuid.UUID) ([]uuid.UUID, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, arg)
	if err != nil {
		r.log.Error("Failed to find held seats",
			zap.Error(err),
			zap.String("id", arg.String()),
		)
		return nil, fmt.Errorf("find held seats for %s: %w", arg.String(), err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan seat id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
