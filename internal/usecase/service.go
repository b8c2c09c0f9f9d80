package usecase

import (
	"transport-booking/internal/data/repository"
	"transport-booking/internal/notification"
	"transport-booking/internal/payment"
	"transport-booking/pkg/database"
	"transport-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Reservation ReservationService
	Payment     PaymentService
	Webhook     WebhookService
	Booking     BookingService
	Inventory   InventoryService
	Catalog     CatalogService
	Vehicle     VehicleService
}

// PaymentProvider is implemented by payment.StripeGateway.
type PaymentProvider interface {
	payment.Gateway
	payment.EventParser
}

func NewService(
	repo *repository.Repository,
	tx database.Transactor,
	provider PaymentProvider,
	notifier notification.Notifier,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	state := NewStateMachine(repo, tx, log)
	payments := NewPaymentService(repo, tx, state, provider, notifier, config, log)

	return &Service{
		Reservation: NewReservationService(repo, tx, payments, notifier, config, log),
		Payment:     payments,
		Webhook:     NewWebhookService(repo, tx, state, provider, notifier, config, log),
		Booking:     NewBookingService(repo, tx, state, provider, notifier, config, log),
		Inventory:   NewInventoryService(repo, tx, config, log),
		Catalog:     NewCatalogService(repo, log),
		Vehicle:     NewVehicleService(repo, tx, config, log),
	}
}
