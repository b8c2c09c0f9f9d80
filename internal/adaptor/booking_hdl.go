package adaptor

import (
	"encoding/json"
	"net/http"
	"strconv"

	"transport-booking/internal/dto/request"
	"transport-booking/internal/usecase"
	"transport-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type BookingHandler struct {
	reservation usecase.ReservationService
	service     usecase.BookingService
	log         *zap.Logger
}

func NewBookingHandler(reservation usecase.ReservationService, service usecase.BookingService, log *zap.Logger) *BookingHandler {
	return &BookingHandler{
		reservation: reservation,
		service:     service,
		log:         log.With(zap.String("handler", "booking")),
	}
}

// Reserve handles POST /api/reservation (protected)
func (h *BookingHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	var req request.ReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	reservation, err := h.reservation.Reserve(r.Context(), principal, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "reserve seats")
		return
	}

	utils.ResponseCreated(w, "Booking created, complete the payment", reservation)
}

// GetUserBookings handles GET /api/user/bookings (protected)
func (h *BookingHandler) GetUserBookings(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.GetUserBookings(r.Context(), principal, req)
	if err != nil {
		handleServiceError(w, h.log, err, "get user bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}

// GetBooking handles GET /api/bookings/{id} (protected)
func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	booking, err := h.service.GetBooking(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// Cancel handles POST /api/bookings/{id}/cancel (protected, pending bookings only)
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	result, err := h.service.Cancel(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "cancel booking")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled", result)
}

// Ticket handles GET /api/bookings/{id}/ticket (protected)
func (h *BookingHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	pdf, filename, err := h.service.Ticket(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "render ticket")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.log.Warn("Failed to write ticket", zap.Error(err))
	}
}
