package entity

import "github.com/google/uuid"

type Route struct {
	ID             uuid.UUID `db:"id"`
	DepartureCity  string    `db:"departure_city"`
	ArrivalCity    string    `db:"arrival_city"`
	DistanceKm     *int      `db:"distance_km"`
	DurationMin    *int      `db:"duration_min"`
	BasePriceCents int64     `db:"base_price_cents"`
	Status         string    `db:"status"`
}
