package adaptor

import (
	"transport-booking/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Booking *BookingHandler
	Payment *PaymentHandler
	Webhook *WebhookHandler
	Catalog *CatalogHandler
	Admin   *AdminHandler
}

func NewHandler(service *usecase.Service, scheduler SchedulerControl, log *zap.Logger) *Handler {
	return &Handler{
		Booking: NewBookingHandler(service.Reservation, service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
		Webhook: NewWebhookHandler(service.Webhook, log),
		Catalog: NewCatalogHandler(service.Catalog, log),
		Admin:   NewAdminHandler(scheduler, service.Vehicle, log),
	}
}
