package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"transport-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func heldSeats(n int) []*entity.BookingSeat {
	bookingID, scheduleID := uuid.New(), uuid.New()
	seats := make([]*entity.BookingSeat, n)
	for i := range seats {
		seats[i] = &entity.BookingSeat{
			BookingID:  bookingID,
			ScheduleID: scheduleID,
			SeatID:     uuid.New(),
			CreatedAt:  time.Now(),
		}
	}
	return seats
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestBookingSeatRepository_CreateBatch(t *testing.T) {
	t.Run("inserts every seat in one statement", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewBookingSeatRepository(mock, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("($5, $6, $7, $8)")).
			WithArgs(anyArgs(8)...).
			WillReturnResult(pgxmock.NewResult("INSERT", 2))

		require.NoError(t, repo.CreateBatch(context.Background(), heldSeats(2)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique key violation maps to ErrSeatAlreadyHeld", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewBookingSeatRepository(mock, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_seats")).
			WithArgs(anyArgs(4)...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "booking_seats_schedule_seat_key"})

		err := repo.CreateBatch(context.Background(), heldSeats(1))
		assert.ErrorIs(t, err, ErrSeatAlreadyHeld)
	})

	t.Run("other constraint is not a seat conflict", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewBookingSeatRepository(mock, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO booking_seats")).
			WithArgs(anyArgs(4)...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "booking_seats_pkey"})

		err := repo.CreateBatch(context.Background(), heldSeats(1))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrSeatAlreadyHeld)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewBookingSeatRepository(mock, zap.NewNop())

		require.NoError(t, repo.CreateBatch(context.Background(), nil))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingSeatRepository_DeleteByBookingID(t *testing.T) {
	mock := newMockPool(t)
	repo := NewBookingSeatRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM booking_seats")).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := repo.DeleteByBookingID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
