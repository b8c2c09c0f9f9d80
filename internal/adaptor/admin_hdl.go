package adaptor

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"transport-booking/internal/dto/request"
	"transport-booking/internal/dto/response"
	"transport-booking/internal/scheduler"
	"transport-booking/internal/usecase"
	"transport-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SchedulerControl is implemented by scheduler.Scheduler.
type SchedulerControl interface {
	GenerateNow(ctx context.Context, daysAhead int) (*response.InventoryResult, error)
	Start(name, spec string) error
	Stop(name string) error
	StopAll()
	Status() []scheduler.JobStatus
}

type AdminHandler struct {
	scheduler SchedulerControl
	vehicles  usecase.VehicleService
	log       *zap.Logger
}

func NewAdminHandler(sched SchedulerControl, vehicles usecase.VehicleService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		scheduler: sched,
		vehicles:  vehicles,
		log:       log.With(zap.String("handler", "admin")),
	}
}

// GenerateInventory handles POST /api/admin/inventory/generate (admin only)
func (h *AdminHandler) GenerateInventory(w http.ResponseWriter, r *http.Request) {
	var req request.GenerateInventoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	result, err := h.scheduler.GenerateNow(r.Context(), req.DaysAhead)
	if err != nil {
		handleServiceError(w, h.log, err, "generate inventory")
		return
	}

	utils.ResponseSuccess(w, "Inventory generated", result)
}

// SchedulerStatus handles GET /api/admin/scheduler (admin only)
func (h *AdminHandler) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	utils.ResponseSuccess(w, "success", h.scheduler.Status())
}

// StartScheduler handles POST /api/admin/scheduler/start (admin only)
func (h *AdminHandler) StartScheduler(w http.ResponseWriter, r *http.Request) {
	var req request.StartSchedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if err := h.scheduler.Start(req.Name, req.Cron); err != nil {
		handleServiceError(w, h.log, err, "start scheduler")
		return
	}

	utils.ResponseSuccess(w, "Scheduler started", h.scheduler.Status())
}

// StopScheduler handles POST /api/admin/scheduler/stop (admin only). An empty body stops every job.
func (h *AdminHandler) StopScheduler(w http.ResponseWriter, r *http.Request) {
	var req request.StopSchedulerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	if req.Name == "" {
		h.scheduler.StopAll()
	} else if err := h.scheduler.Stop(req.Name); err != nil {
		handleServiceError(w, h.log, err, "stop scheduler")
		return
	}

	utils.ResponseSuccess(w, "Scheduler stopped", h.scheduler.Status())
}

// UpdateVehicleCapacity handles PUT /api/admin/vehicles/{id}/capacity (admin only)
func (h *AdminHandler) UpdateVehicleCapacity(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCapacityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.vehicles.UpdateCapacity(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update vehicle capacity")
		return
	}

	utils.ResponseSuccess(w, "Vehicle capacity updated", result)
}
