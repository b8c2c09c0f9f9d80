package entity

import "github.com/google/uuid"

type SeatType string

const (
	SeatTypeFront    SeatType = "front"
	SeatTypeStandard SeatType = "standard"
)

// Seat belongs to a schedule catalog, or to a vehicle when ScheduleID is nil.
type Seat struct {
	ID            uuid.UUID  `db:"id"`
	ScheduleID    *uuid.UUID `db:"schedule_id"`
	VehicleID     *uuid.UUID `db:"vehicle_id"`
	SeatNumber    string     `db:"seat_number"` // 1A, 2A, 1B, ...
	SeatType      SeatType   `db:"seat_type"`
	SeatRow       string     `db:"seat_row"` // A, B, C, ...
	SeatCol       int        `db:"seat_col"`
	ExtraFeeCents int64      `db:"extra_fee_cents"`
}
