package entity

import (
	"time"

	"github.com/google/uuid"
)

type Schedule struct {
	Base
	TripID        uuid.UUID `db:"trip_id"`
	Label         string    `db:"label"`
	DepartureTime time.Time `db:"departure_time"`
	ArrivalTime   time.Time `db:"arrival_time"`
	Status        string    `db:"status"`
}
