package repository

import (
	"context"
	"fmt"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"go.uber.org/zap"
)

type TripTemplateRepository interface {
	FindActive(ctx context.Context) ([]*entity.TripTemplate, error)
}

type tripTemplateRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTripTemplateRepository(db database.PgxIface, log *zap.Logger) TripTemplateRepository {
	return &tripTemplateRepository{
		db:  db,
		log: log.With(zap.String("repository", "trip_template")),
	}
}

func (r *tripTemplateRepository) FindActive(ctx context.Context) ([]*entity.TripTemplate, error) {
	query := `
		SELECT id, route_id, vehicle_id, driver_id, price_cents, active
		FROM trip_templates
		WHERE active = TRUE
		ORDER BY id
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		r.log.Error("Failed to find active trip templates", zap.Error(err))
		return nil, fmt.Errorf("find active trip templates: %w", err)
	}
	defer rows.Close()

	var templates []*entity.TripTemplate
	for rows.Next() {
		var t entity.TripTemplate
		if err := rows.Scan(
			&t.ID,
			&t.RouteID,
			&t.VehicleID,
			&t.DriverID,
			&t.PriceCents,
			&t.Active,
		); err != nil {
			r.log.Error("Failed to scan trip template", zap.Error(err))
			return nil, fmt.Errorf("scan trip template: %w", err)
		}
		templates = append(templates, &t)
	}

	return templates, rows.Err()
}
