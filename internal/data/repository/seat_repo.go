package repository

import (
	"context"
	"fmt"
	"strings"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SeatRepository interface {
	CreateBatch(ctx context.Context, seats []*entity.Seat) error
	FindBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.Seat, error)
	// FindByVehicle returns the vehicle-level catalog, seats not bound to a schedule.
	FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*entity.Seat, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error)
	DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error)
}

type seatRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewSeatRepository(db database.PgxIface, log *zap.Logger) SeatRepository {
	return &seatRepository{
		db:  db,
		log: log.With(zap.String("repository", "seat")),
	}
}

const seatColumns = `id, schedule_id, vehicle_id, seat_number, seat_type, seat_row, seat_col, extra_fee_cents`

func (r *seatRepository) CreateBatch(ctx context.Context, seats []*entity.Seat) error {
	if len(seats) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO seats (" + seatColumns + ") VALUES ")

	args := make([]any, 0, len(seats)*8)
	for i, seat := range seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		n := i * 8
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)", n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8)
		args = append(args,
			seat.ID,
			seat.ScheduleID,
			seat.VehicleID,
			seat.SeatNumber,
			seat.SeatType,
			seat.SeatRow,
			seat.SeatCol,
			seat.ExtraFeeCents,
		)
	}

	if _, err := database.Conn(ctx, r.db).Exec(ctx, sb.String(), args...); err != nil {
		r.log.Error("Failed to create seats",
			zap.Error(err),
			zap.Int("count", len(seats)),
		)
		return fmt.Errorf("create %d seats: %w", len(seats), err)
	}

	return nil
}

func (r *seatRepository) FindBySchedule(ctx context.Context, scheduleID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE schedule_id = $1
		ORDER BY seat_row, seat_col
	`
	return r.list(ctx, "schedule", query, scheduleID)
}

func (r *seatRepository) FindByVehicle(ctx context.Context, vehicleID uuid.UUID) ([]*entity.Seat, error) {
	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE vehicle_id = $1 AND schedule_id IS NULL
		ORDER BY seat_row, seat_col
	`
	return r.list(ctx, "vehicle", query, vehicleID)
}

func (r *seatRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Seat, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT ` + seatColumns + `
		FROM seats
		WHERE id = ANY($1)
		ORDER BY seat_row, seat_col
	`
	return r.list(ctx, "ids", query, ids)
}

func (r *seatRepository) DeleteByVehicle(ctx context.Context, vehicleID uuid.UUID) (int64, error) {
	query := `DELETE FROM seats WHERE vehicle_id = $1 AND schedule_id IS NULL`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, vehicleID)
	if err != nil {
		r.log.Error("Failed to delete vehicle seats",
			zap.Error(err),
			zap.String("vehicle_id", vehicleID.String()),
		)
		return 0, fmt.Errorf("delete seats of vehicle %s: %w", vehicleID.String(), err)
	}

	return result.RowsAffected(), nil
}

func (r *seatRepository) list(ctx context.Context, by, query string, arg any) ([]*entity.Seat, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, arg)
	if err != nil {
		r.log.Error("Failed to find seats", zap.Error(err), zap.String("by", by))
		return nil, fmt.Errorf("find seats by %s: %w", by, err)
	}
	defer rows.Close()

	var seats []*entity.Seat
	for rows.Next() {
		var s entity.Seat
		if err := rows.Scan(
			&s.ID,
			&s.ScheduleID,
			&s.VehicleID,
			&s.SeatNumber,
			&s.SeatType,
			&s.SeatRow,
			&s.SeatCol,
			&s.ExtraFeeCents,
		); err != nil {
			r.log.Error("Failed to scan seat", zap.Error(err))
			return nil, fmt.Errorf("scan seat: %w", err)
		}
		seats = append(seats, &s)
	}

	return seats, rows.Err()
}
