package wire

import (
	"net/http"

	"transport-booking/internal/adaptor"
	"transport-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	authenticated func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.Route("/api/admin", func(r chi.Router) {
		// Require both authentication AND admin role
		r.Use(authenticated)
		r.Use(middleware.Admin(log))

		r.Post("/inventory/generate", adminHandler.GenerateInventory)

		r.Get("/scheduler", adminHandler.SchedulerStatus)
		r.Post("/scheduler/start", adminHandler.StartScheduler)
		r.Post("/scheduler/stop", adminHandler.StopScheduler)

		r.Put("/vehicles/{id}/capacity", adminHandler.UpdateVehicleCapacity)
	})
}
