package repository

import (
	"transport-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Route        RouteRepository
	Vehicle      VehicleRepository
	TripTemplate TripTemplateRepository
	Trip         TripRepository
	Schedule     ScheduleRepository
	Seat         SeatRepository
	Booking      BookingRepository
	BookingSeat  BookingSeatRepository
	Payment      PaymentRepository
	Refund       RefundRepository
	WebhookEvent WebhookEventRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:         NewUserRepository(db, log),
		Session:      NewSessionRepository(db, log),
		Route:        NewRouteRepository(db, log),
		Vehicle:      NewVehicleRepository(db, log),
		TripTemplate: NewTripTemplateRepository(db, log),
		Trip:         NewTripRepository(db, log),
		Schedule:     NewScheduleRepository(db, log),
		Seat:         NewSeatRepository(db, log),
		Booking:      NewBookingRepository(db, log),
		BookingSeat:  NewBookingSeatRepository(db, log),
		Payment:      NewPaymentRepository(db, log),
		Refund:       NewRefundRepository(db, log),
		WebhookEvent: NewWebhookEventRepository(db, log),
	}
}
