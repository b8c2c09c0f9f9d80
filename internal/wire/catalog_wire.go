package wire

import (
	"transport-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, catalogHandler *adaptor.CatalogHandler) {
	// ==================== PUBLIC ROUTES ====================
	r.Get("/api/trips/{id}/seats", catalogHandler.TripSeats)
	r.Get("/api/schedules/{id}/seats", catalogHandler.ScheduleSeats)
}
