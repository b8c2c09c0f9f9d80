package entity

import "github.com/google/uuid"

type Vehicle struct {
	ID           uuid.UUID `db:"id"`
	Registration string    `db:"registration"`
	Model        *string   `db:"model"`
	VehicleType  *string   `db:"vehicle_type"`
	SeatCount    int       `db:"seat_count"`
	Equipment    *string   `db:"equipment"`
	Status       string    `db:"status"`
}
