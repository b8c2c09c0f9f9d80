package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingSeat struct {
	BookingID  uuid.UUID `db:"booking_id"`
	ScheduleID uuid.UUID `db:"schedule_id"`
	SeatID     uuid.UUID `db:"seat_id"`
	CreatedAt  time.Time `db:"created_at"`
}
