package entity

import (
	"time"

	"github.com/google/uuid"
)

type TripStatus string

const (
	TripStatusScheduled  TripStatus = "scheduled"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// Trip is one route+vehicle+driver instance on a calendar date.
type Trip struct {
	Base
	RouteID       uuid.UUID  `db:"route_id"`
	VehicleID     uuid.UUID  `db:"vehicle_id"`
	DriverID      uuid.UUID  `db:"driver_id"`
	DepartureDate time.Time  `db:"departure_date"`
	Status        TripStatus `db:"status"`
	PriceCents    int64      `db:"price_cents"`
}

// TripTemplate drives the inventory generator.
type TripTemplate struct {
	ID         uuid.UUID `db:"id"`
	RouteID    uuid.UUID `db:"route_id"`
	VehicleID  uuid.UUID `db:"vehicle_id"`
	DriverID   uuid.UUID `db:"driver_id"`
	PriceCents int64     `db:"price_cents"`
	Active     bool      `db:"active"`
}
