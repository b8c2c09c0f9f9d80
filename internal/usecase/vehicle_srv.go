package usecase

import (
	"context"
	"fmt"

	"transport-booking/internal/data/repository"
	"transport-booking/internal/dto/request"
	"transport-booking/internal/dto/response"
	"transport-booking/pkg/database"
	"transport-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type VehicleService interface {
	// UpdateCapacity replaces the vehicle-level seat catalog. Schedule catalogs that
	// already exist keep their seats.
	UpdateCapacity(ctx context.Context, vehicleID string, req *request.UpdateCapacityRequest) (*response.VehicleCapacityResponse, error)
}

type vehicleService struct {
	repo          *repository.Repository
	tx            database.Transactor
	frontFeeCents int64
	log           *zap.Logger
}

func NewVehicleService(repo *repository.Repository, tx database.Transactor, config *utils.Config, log *zap.Logger) VehicleService {
	return &vehicleService{
		repo:          repo,
		tx:            tx,
		frontFeeCents: config.Scheduler.FrontSeatFeeCents,
		log:           log.With(zap.String("service", "vehicle")),
	}
}

func (s *vehicleService) UpdateCapacity(ctx context.Context, vehicleID string, req *request.UpdateCapacityRequest) (*response.VehicleCapacityResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	id, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid vehicle ID %s", ErrValidation, vehicleID)
	}

	vehicle, err := s.repo.Vehicle.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load vehicle: %w", err)
	}
	if vehicle == nil {
		return nil, notFound("vehicle", vehicleID)
	}

	catalog := buildSeatCatalog(req.SeatCount, s.frontFeeCents, nil, &vehicle.ID)

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Vehicle.UpdateSeatCount(ctx, vehicle.ID, req.SeatCount); err != nil {
			return err
		}
		if _, err := s.repo.Seat.DeleteByVehicle(ctx, vehicle.ID); err != nil {
			return err
		}
		return s.repo.Seat.CreateBatch(ctx, catalog)
	})
	if err != nil {
		s.log.Error("Failed to regenerate vehicle seats", zap.Error(err), zap.String("vehicle_id", vehicleID))
		return nil, fmt.Errorf("update vehicle capacity: %w", err)
	}

	s.log.Info("Vehicle capacity updated",
		zap.String("vehicle_id", vehicleID),
		zap.Int("from", vehicle.SeatCount),
		zap.Int("to", req.SeatCount),
	)

	return &response.VehicleCapacityResponse{
		VehicleID:   vehicle.ID.String(),
		SeatCount:   req.SeatCount,
		SeatNumbers: seatNumbers(catalog),
	}, nil
}
