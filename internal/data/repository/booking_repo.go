package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error)

	// TransitionStatus moves the booking to `to` only while its status is one of `from`.
	TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus) (bool, error)
	SetPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error
	FindPendingBookedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `id, order_ref, user_id, trip_id, schedule_id, status, total_price_cents, seat_count, payment_intent_id, booked_at, updated_at`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		booking.ID,
		booking.OrderRef,
		booking.UserID,
		booking.TripID,
		booking.ScheduleID,
		booking.Status,
		booking.TotalPriceCents,
		booking.SeatCount,
		booking.PaymentIntentID,
		booking.BookedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("order_ref", booking.OrderRef),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.OrderRef, err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1
		ORDER BY booked_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings by user ID %s: %w", userID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			r.log.Error("Failed to scan booking", zap.Error(err))
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) CountByUserID(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE user_id = $1`

	var count int64
	if err := database.Conn(ctx, r.db).QueryRow(ctx, query, userID).Scan(&count); err != nil {
		r.log.Error("Failed to count bookings by user ID",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return 0, fmt.Errorf("count bookings by user ID %s: %w", userID.String(), err)
	}

	return count, nil
}

func (r *bookingRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from []entity.BookingStatus, to entity.BookingStatus) (bool, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = ANY($3)
	`

	sources := make([]string, len(from))
	for i, s := range from {
		sources[i] = string(s)
	}

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, to, id, sources)
	if err != nil {
		r.log.Error("Failed to transition booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("transition booking %s to %s: %w", id.String(), to, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *bookingRepository) SetPaymentIntent(ctx context.Context, id uuid.UUID, paymentIntentID string) error {
	query := `UPDATE bookings SET payment_intent_id = $1, updated_at = NOW() WHERE id = $2`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, paymentIntentID, id); err != nil {
		r.log.Error("Failed to set booking payment intent",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("set payment intent of booking %s: %w", id.String(), err)
	}

	return nil
}

func (r *bookingRepository) FindPendingBookedBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	query := `
		SELECT id
		FROM bookings
		WHERE status = 'pending' AND booked_at < $1
		ORDER BY booked_at
		LIMIT $2
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, cutoff, limit)
	if err != nil {
		r.log.Error("Failed to find stale pending bookings", zap.Error(err))
		return nil, fmt.Errorf("find pending bookings before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan booking id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var b entity.Booking
	err := row.Scan(
		&b.ID,
		&b.OrderRef,
		&b.UserID,
		&b.TripID,
		&b.ScheduleID,
		&b.Status,
		&b.TotalPriceCents,
		&b.SeatCount,
		&b.PaymentIntentID,
		&b.BookedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}
