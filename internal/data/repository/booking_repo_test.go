package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"transport-booking/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestBookingRepository_TransitionStatus(t *testing.T) {
	id := uuid.New()
	from := []entity.BookingStatus{entity.BookingStatusPending}

	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "status matched", affected: 1, want: true},
		{name: "status already moved", affected: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMockPool(t)
			repo := NewBookingRepository(mock, zap.NewNop())

			mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings")).
				WithArgs(entity.BookingStatusPaid, id, []string{"pending"}).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			changed, err := repo.TransitionStatus(context.Background(), id, from, entity.BookingStatusPaid)
			require.NoError(t, err)
			assert.Equal(t, tt.want, changed)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookingRepository_FindByID_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewBookingRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE id = $1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	booking, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, booking)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_Create_WrapsError(t *testing.T) {
	mock := newMockPool(t)
	repo := NewBookingRepository(mock, zap.NewNop())
	dbErr := errors.New("connection reset")

	args := make([]any, 11)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bookings")).
		WithArgs(args...).
		WillReturnError(dbErr)

	err := repo.Create(context.Background(), &entity.Booking{
		ID:       uuid.New(),
		OrderRef: "TRIP-20260101-080000-0001",
		UserID:   uuid.New(),
		Status:   entity.BookingStatusPending,
		BookedAt: time.Now(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	assert.Contains(t, err.Error(), "TRIP-20260101-080000-0001")
}

func TestBookingRepository_CountByUserID(t *testing.T) {
	mock := newMockPool(t)
	repo := NewBookingRepository(mock, zap.NewNop())
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM bookings")).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	count, err := repo.CountByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
