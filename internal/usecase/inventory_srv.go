package usecase

import (
	"context"
	"fmt"
	"slices"
	"time"

	"transport-booking/internal/data/entity"
	"transport-booking/internal/data/repository"
	"transport-booking/internal/dto/response"
	"transport-booking/pkg/database"
	"transport-booking/pkg/metrics"
	"transport-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxDaysAhead = 365

// ScheduleSlot is a daily departure; an arrival earlier than the departure rolls to the next day.
type ScheduleSlot struct {
	Label     string
	Departure time.Duration
	Arrival   time.Duration
}

var DefaultSlots = []ScheduleSlot{
	{Label: "morning", Departure: 8 * time.Hour, Arrival: 12*time.Hour + 30*time.Minute},
	{Label: "afternoon", Departure: 14 * time.Hour, Arrival: 18*time.Hour + 30*time.Minute},
	{Label: "evening", Departure: 20 * time.Hour, Arrival: 30 * time.Minute},
}

type InventoryService interface {
	// Generate materializes trips, schedules and seats for [today, today+daysAhead).
	// Route/date pairs that already have a trip are skipped.
	Generate(ctx context.Context, daysAhead int) (*response.InventoryResult, error)
}

type inventoryService struct {
	repo          *repository.Repository
	tx            database.Transactor
	slots         []ScheduleSlot
	location      *time.Location
	skipWeekdays  []time.Weekday
	frontFeeCents int64
	retentionDays int
	now           func() time.Time
	log           *zap.Logger
}

func NewInventoryService(repo *repository.Repository, tx database.Transactor, config *utils.Config, log *zap.Logger) InventoryService {
	return &inventoryService{
		repo:          repo,
		tx:            tx,
		slots:         DefaultSlots,
		location:      config.Scheduler.Location(),
		skipWeekdays:  config.Scheduler.SkipWeekdays,
		frontFeeCents: config.Scheduler.FrontSeatFeeCents,
		retentionDays: config.Scheduler.TripRetentionDays,
		now:           time.Now,
		log:           log.With(zap.String("service", "inventory")),
	}
}

func (s *inventoryService) Generate(ctx context.Context, daysAhead int) (*response.InventoryResult, error) {
	if daysAhead < 1 || daysAhead > maxDaysAhead {
		return nil, fmt.Errorf("%w: days ahead must be between 1 and %d", ErrValidation, maxDaysAhead)
	}

	templates, err := s.repo.TripTemplate.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load trip templates: %w", err)
	}

	capacities := make(map[uuid.UUID]int)
	for _, t := range templates {
		if _, ok := capacities[t.VehicleID]; ok {
			continue
		}
		vehicle, err := s.repo.Vehicle.FindByID(ctx, t.VehicleID)
		if err != nil {
			return nil, fmt.Errorf("load vehicle %s: %w", t.VehicleID, err)
		}
		if vehicle == nil {
			return nil, notFound("vehicle", t.VehicleID.String())
		}
		if vehicle.SeatCount > MaxSeatCapacity {
			s.log.Warn("Vehicle has more seats than the layout allows, its templates are skipped",
				zap.String("vehicle_id", vehicle.ID.String()),
				zap.Int("seat_count", vehicle.SeatCount),
				zap.Int("max", MaxSeatCapacity),
			)
		}
		capacities[t.VehicleID] = vehicle.SeatCount
	}

	result := &response.InventoryResult{}
	today := s.now().In(s.location)

	for offset := 0; offset < daysAhead; offset++ {
		day := time.Date(today.Year(), today.Month(), today.Day()+offset, 0, 0, 0, 0, s.location)
		if slices.Contains(s.skipWeekdays, day.Weekday()) {
			continue
		}

		for _, t := range templates {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			capacity := capacities[t.VehicleID]
			if capacity > MaxSeatCapacity {
				continue
			}
			if err := s.generateTrip(ctx, t, day, capacity, result); err != nil {
				return result, err
			}
		}
	}

	if s.retentionDays > 0 {
		cutoff := time.Date(today.Year(), today.Month(), today.Day()-s.retentionDays, 0, 0, 0, 0, time.UTC)
		deleted, err := s.repo.Trip.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			s.log.Error("Failed to clean up old trips", zap.Error(err))
		} else {
			result.TripsDeleted = deleted
		}
	}

	metrics.TripsGeneratedTotal.Add(float64(result.TripsCreated))
	s.log.Info("Inventory generated",
		zap.Int("days_ahead", daysAhead),
		zap.Int("templates", len(templates)),
		zap.Int("trips_created", result.TripsCreated),
		zap.Int("schedules_created", result.SchedulesCreated),
		zap.Int("seats_created", result.SeatsCreated),
		zap.Int64("trips_deleted", result.TripsDeleted),
	)

	return result, nil
}

// generateTrip creates one trip with its schedules and seat catalogs atomically.
func (s *inventoryService) generateTrip(ctx context.Context, t *entity.TripTemplate, day time.Time, capacity int, result *response.InventoryResult) error {
	now := s.now()
	trip := &entity.Trip{
		Base:          entity.NewBase(now),
		RouteID:       t.RouteID,
		VehicleID:     t.VehicleID,
		DriverID:      t.DriverID,
		DepartureDate: time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Status:        entity.TripStatusScheduled,
		PriceCents:    t.PriceCents,
	}

	var (
		created          bool
		schedules, seats int
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.repo.Trip.CreateIfAbsent(ctx, trip)
		if err != nil || !created {
			return err
		}

		for _, slot := range s.slots {
			departure := wallClock(day, slot.Departure)
			arrival := wallClock(day, slot.Arrival)
			if !arrival.After(departure) {
				arrival = arrival.AddDate(0, 0, 1)
			}

			schedule := &entity.Schedule{
				Base:          entity.NewBase(now),
				TripID:        trip.ID,
				Label:         slot.Label,
				DepartureTime: departure,
				ArrivalTime:   arrival,
				Status:        "available",
			}
			if err := s.repo.Schedule.Create(ctx, schedule); err != nil {
				return err
			}

			catalog := buildSeatCatalog(capacity, s.frontFeeCents, &schedule.ID, nil)
			if err := s.repo.Seat.CreateBatch(ctx, catalog); err != nil {
				return err
			}

			schedules++
			seats += len(catalog)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("generate trip for route %s on %s: %w", t.RouteID, day.Format(time.DateOnly), err)
	}

	if created {
		result.TripsCreated++
		result.SchedulesCreated += schedules
		result.SeatsCreated += seats
	}
	return nil
}

// wallClock returns the local time of day on the given date, stable across DST changes.
func wallClock(day time.Time, offset time.Duration) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, int(offset/time.Minute), 0, 0, day.Location())
}
