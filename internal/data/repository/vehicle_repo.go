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

type VehicleRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error)
	UpdateSeatCount(ctx context.Context, id uuid.UUID, seatCount int) error
}

type vehicleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewVehicleRepository(db database.PgxIface, log *zap.Logger) VehicleRepository {
	return &vehicleRepository{
		db:  db,
		log: log.With(zap.String("repository", "vehicle")),
	}
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Vehicle, error) {
	query := `
		SELECT id, registration, model, vehicle_type, seat_count, equipment, status
		FROM vehicles
		WHERE id = $1
	`

	var vehicle entity.Vehicle
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&vehicle.ID,
		&vehicle.Registration,
		&vehicle.Model,
		&vehicle.VehicleType,
		&vehicle.SeatCount,
		&vehicle.Equipment,
		&vehicle.Status,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find vehicle by ID",
			zap.Error(err),
			zap.String("vehicle_id", id.String()),
		)
		return nil, fmt.Errorf("find vehicle by ID %s: %w", id.String(), err)
	}

	return &vehicle, nil
}

func (r *vehicleRepository) UpdateSeatCount(ctx context.Context, id uuid.UUID, seatCount int) error {
	query := `UPDATE vehicles SET seat_count = $1 WHERE id = $2`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, seatCount, id)
	if err != nil {
		r.log.Error("Failed to update vehicle seat count",
			zap.Error(err),
			zap.String("vehicle_id", id.String()),
			zap.Int("seat_count", seatCount),
		)
		return fmt.Errorf("update seat count of vehicle %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("vehicle %s not found", id.String())
	}

	return nil
}
