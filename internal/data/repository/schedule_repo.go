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

type ScheduleRepository interface {
	Create(ctx context.Context, schedule *entity.Schedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error)
	FindByTripID(ctx context.Context, tripID uuid.UUID) ([]*entity.Schedule, error)
}

type scheduleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewScheduleRepository(db database.PgxIface, log *zap.Logger) ScheduleRepository {
	return &scheduleRepository{
		db:  db,
		log: log.With(zap.String("repository", "schedule")),
	}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *entity.Schedule) error {
	query := `
		INSERT INTO schedules (id, trip_id, label, departure_time, arrival_time, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := database.Conn(ctx, r.db).Exec(ctx, query,
		schedule.ID,
		schedule.TripID,
		schedule.Label,
		schedule.DepartureTime,
		schedule.ArrivalTime,
		schedule.Status,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create schedule",
			zap.Error(err),
			zap.String("trip_id", schedule.TripID.String()),
			zap.String("label", schedule.Label),
		)
		return fmt.Errorf("create schedule %s for trip %s: %w", schedule.Label, schedule.TripID.String(), err)
	}

	return nil
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Schedule, error) {
	query := `
		SELECT id, trip_id, label, departure_time, arrival_time, status, created_at, updated_at
		FROM schedules
		WHERE id = $1
	`

	schedule, err := scanSchedule(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find schedule by ID",
			zap.Error(err),
			zap.String("schedule_id", id.String()),
		)
		return nil, fmt.Errorf("find schedule by ID %s: %w", id.String(), err)
	}

	return schedule, nil
}

func (r *scheduleRepository) FindByTripID(ctx context.Context, tripID uuid.UUID) ([]*entity.Schedule, error) {
	query := `
		SELECT id, trip_id, label, departure_time, arrival_time, status, created_at, updated_at
		FROM schedules
		WHERE trip_id = $1
		ORDER BY departure_time
	`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, tripID)
	if err != nil {
		r.log.Error("Failed to find schedules by trip",
			zap.Error(err),
			zap.String("trip_id", tripID.String()),
		)
		return nil, fmt.Errorf("find schedules by trip %s: %w", tripID.String(), err)
	}
	defer rows.Close()

	var schedules []*entity.Schedule
	for rows.Next() {
		schedule, err := scanSchedule(rows)
		if err != nil {
			r.log.Error("Failed to scan schedule", zap.Error(err))
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		schedules = append(schedules, schedule)
	}

	return schedules, rows.Err()
}

func scanSchedule(row rowScanner) (*entity.Schedule, error) {
	var s entity.Schedule
	err := row.Scan(
		&s.ID,
		&s.TripID,
		&s.Label,
		&s.DepartureTime,
		&s.ArrivalTime,
		&s.Status,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
