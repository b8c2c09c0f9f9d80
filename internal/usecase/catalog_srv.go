package usecase

import (
	"context"
	"fmt"

	"transport-booking/internal/data/entity"
	"transport-booking/internal/data/repository"
	"transport-booking/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService interface {
	GetScheduleSeats(ctx context.Context, scheduleID string) (*response.SeatMapResponse, error)
	// GetTripSeats uses the schedule catalog when scheduleID is set, the vehicle catalog otherwise.
	GetTripSeats(ctx context.Context, tripID, scheduleID string) (*response.SeatMapResponse, error)
}

type catalogService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCatalogService(repo *repository.Repository, log *zap.Logger) CatalogService {
	return &catalogService{
		repo: repo,
		log:  log.With(zap.String("service", "catalog")),
	}
}

func (s *catalogService) GetScheduleSeats(ctx context.Context, scheduleID string) (*response.SeatMapResponse, error) {
	id, err := uuid.Parse(scheduleID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, scheduleID)
	}

	schedule, err := s.repo.Schedule.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load schedule: %w", err)
	}
	if schedule == nil {
		return nil, notFound("schedule", scheduleID)
	}

	return s.scheduleSeatMap(ctx, schedule)
}

func (s *catalogService) GetTripSeats(ctx context.Context, tripID, scheduleID string) (*response.SeatMapResponse, error) {
	id, err := uuid.Parse(tripID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid trip ID %s", ErrValidation, tripID)
	}

	trip, err := s.repo.Trip.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load trip: %w", err)
	}
	if trip == nil {
		return nil, notFound("trip", tripID)
	}

	if scheduleID != "" {
		sid, err := uuid.Parse(scheduleID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid schedule ID %s", ErrValidation, scheduleID)
		}
		schedule, err := s.repo.Schedule.FindByID(ctx, sid)
		if err != nil {
			return nil, fmt.Errorf("load schedule: %w", err)
		}
		if schedule == nil || schedule.TripID != trip.ID {
			return nil, notFound("schedule", scheduleID)
		}
		return s.scheduleSeatMap(ctx, schedule)
	}

	seats, err := s.repo.Seat.FindByVehicle(ctx, trip.VehicleID)
	if err != nil {
		return nil, fmt.Errorf("load vehicle seats: %w", err)
	}
	held, err := s.repo.BookingSeat.FindHeldSeatIDsByTrip(ctx, trip.ID)
	if err != nil {
		return nil, fmt.Errorf("load held seats: %w", err)
	}

	seatMap := response.NewSeatMap(seats, heldSet(held))
	seatMap.TripID = trip.ID.String()
	return &seatMap, nil
}

func (s *catalogService) scheduleSeatMap(ctx context.Context, schedule *entity.Schedule) (*response.SeatMapResponse, error) {
	seats, err := s.repo.Seat.FindBySchedule(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("load seat catalog: %w", err)
	}
	held, err := s.repo.BookingSeat.FindHeldSeatIDs(ctx, schedule.ID)
	if err != nil {
		return nil, fmt.Errorf("load held seats: %w", err)
	}

	seatMap := response.NewSeatMap(seats, heldSet(held))
	seatMap.TripID = schedule.TripID.String()
	seatMap.ScheduleID = schedule.ID.String()
	return &seatMap, nil
}

func heldSet(ids []uuid.UUID) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id.String()] = true
	}
	return set
}
