package repository

import (
	"context"
	"errors"
	"fmt"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RouteRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Route, error)
}

type routeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRouteRepository(db database.PgxIface, log *zap.Logger) RouteRepository {
	return &routeRepository{
		db:  db,
		log: log.With(zap.String("repository", "route")),
	}
}

func (r *routeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Route, error) {
	query := `
		SELECT id, departure_city, arrival_city, distance_km, duration_min, base_price_cents, status
		FROM routes
		WHERE id = $1
	`

	var route entity.Route
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&route.ID,
		&route.DepartureCity,
		&route.ArrivalCity,
		&route.DistanceKm,
		&route.DurationMin,
		&route.BasePriceCents,
		&route.Status,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find route by ID",
			zap.Error(err),
			zap.String("route_id", id.String()),
		)
		return nil, fmt.Errorf("find route by ID %s: %w", id.String(), err)
	}

	return &route, nil
}
