package adaptor

import (
	"encoding/json"
	"net/http"

	"transport-booking/internal/dto/request"
	"transport-booking/internal/usecase"
	"transport-booking/pkg/utils"

	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// RetryPayment handles POST /api/retry-payment (protected)
func (h *PaymentHandler) RetryPayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	var req request.BookingIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	session, err := h.service.Retry(r.Context(), principal, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "retry payment")
		return
	}

	utils.ResponseSuccess(w, "Payment session created", session)
}

// CancelTrip handles POST /api/cancel-trip (protected): refunds a paid booking.
func (h *PaymentHandler) CancelTrip(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	var req request.BookingIDRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.CancelAndRefund(r.Context(), principal, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "cancel trip")
		return
	}

	utils.ResponseSuccess(w, "Booking cancelled and refunded", result)
}

// PaymentStatus handles GET /api/payment-status?booking_id= (protected)
func (h *PaymentHandler) PaymentStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalOrReject(w, r)
	if !ok {
		return
	}

	bookingID := r.URL.Query().Get("booking_id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "booking_id is required", nil)
		return
	}

	status, err := h.service.GetPaymentStatus(r.Context(), principal, bookingID)
	if err != nil {
		handleServiceError(w, h.log, err, "get payment status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}
