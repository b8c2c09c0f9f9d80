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

type TripRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error)
	// CreateIfAbsent inserts the trip unless its (route, date) pair already exists.
	CreateIfAbsent(ctx context.Context, trip *entity.Trip) (bool, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type tripRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTripRepository(db database.PgxIface, log *zap.Logger) TripRepository {
	return &tripRepository{
		db:  db,
		log: log.With(zap.String("repository", "trip")),
	}
}

func (r *tripRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Trip, error) {
	query := `
		SELECT id, route_id, vehicle_id, driver_id, departure_date, status, price_cents, created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	var trip entity.Trip
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&trip.ID,
		&trip.RouteID,
		&trip.VehicleID,
		&trip.DriverID,
		&trip.DepartureDate,
		&trip.Status,
		&trip.PriceCents,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find trip by ID",
			zap.Error(err),
			zap.String("trip_id", id.String()),
		)
		return nil, fmt.Errorf("find trip by ID %s: %w", id.String(), err)
	}

	return &trip, nil
}

func (r *tripRepository) CreateIfAbsent(ctx context.Context, trip *entity.Trip) (bool, error) {
	query := `
		INSERT INTO trips (id, route_id, vehicle_id, driver_id, departure_date, status, price_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (route_id, departure_date) DO NOTHING
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		trip.ID,
		trip.RouteID,
		trip.VehicleID,
		trip.DriverID,
		trip.DepartureDate,
		trip.Status,
		trip.PriceCents,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create trip",
			zap.Error(err),
			zap.String("route_id", trip.RouteID.String()),
			zap.Time("departure_date", trip.DepartureDate),
		)
		return false, fmt.Errorf("create trip for route %s: %w", trip.RouteID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

// DeleteOlderThan removes past trips, keeping any that still carry a paid booking.
func (r *tripRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM trips t
		WHERE t.departure_date < $1
		  AND NOT EXISTS (
			SELECT 1 FROM bookings b
			WHERE b.trip_id = t.id AND b.status = 'paid'
		  )
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, cutoff)
	if err != nil {
		r.log.Error("Failed to delete old trips",
			zap.Error(err),
			zap.Time("cutoff", cutoff),
		)
		return 0, fmt.Errorf("delete trips before %s: %w", cutoff.Format(time.DateOnly), err)
	}

	return result.RowsAffected(), nil
}
