package adaptor

import (
	"net/http"

	"transport-booking/internal/usecase"
	"transport-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With(zap.String("handler", "catalog")),
	}
}

// TripSeats handles GET /api/trips/{id}/seats?schedule_id= (public)
func (h *CatalogHandler) TripSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.GetTripSeats(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("schedule_id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get trip seats")
		return
	}

	utils.ResponseSuccess(w, "success", seats)
}

// ScheduleSeats handles GET /api/schedules/{id}/seats (public)
func (h *CatalogHandler) ScheduleSeats(w http.ResponseWriter, r *http.Request) {
	seats, err := h.service.GetScheduleSeats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get schedule seats")
		return
	}

	utils.ResponseSuccess(w, "success", seats)
}
