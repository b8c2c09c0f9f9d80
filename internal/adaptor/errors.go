package adaptor

import (
	"errors"
	"net/http"

	"transport-booking/internal/scheduler"
	"transport-booking/internal/usecase"
	"transport-booking/pkg/utils"

	"go.uber.org/zap"
)

type seatConflict struct {
	SeatIDs     []string `json:"seat_ids"`
	SeatNumbers []string `json:"seat_numbers,omitempty"`
}

type pendingBooking struct {
	BookingID string `json:"booking_id"`
	OrderRef  string `json:"order_ref,omitempty"`
}

// handleServiceError maps use-case errors to the response envelope and status code.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var seatErr *usecase.SeatSelectionError
	var sessionErr *usecase.PaymentSessionError

	switch {
	case errors.As(err, &seatErr) && errors.Is(err, usecase.ErrSeatsUnavailable):
		log.Info(operation+" failed - seats taken", zap.Error(err))
		utils.ResponseConflict(w, err.Error(), seatConflict{SeatIDs: seatErr.SeatIDs, SeatNumbers: seatErr.SeatNumbers})

	case errors.As(err, &seatErr):
		log.Warn(operation+" failed - invalid seats", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), seatConflict{SeatIDs: seatErr.SeatIDs})

	case errors.As(err, &sessionErr):
		log.Error(operation+" failed - payment provider", zap.Error(err))
		utils.ResponseBadGateway(w, "Payment provider unavailable, retry payment later",
			pendingBooking{BookingID: sessionErr.BookingID, OrderRef: sessionErr.OrderRef})

	case errors.Is(err, usecase.ErrValidation),
		errors.Is(err, usecase.ErrInvalidState),
		errors.Is(err, usecase.ErrNoPayment),
		errors.Is(err, usecase.ErrSignatureInvalid),
		errors.Is(err, usecase.ErrMissingCorrelation),
		errors.Is(err, scheduler.ErrInvalidSchedule),
		errors.Is(err, scheduler.ErrUnknownJob):
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())

	case errors.Is(err, usecase.ErrProvider):
		log.Error(operation+" failed - payment provider", zap.Error(err))
		utils.ResponseBadGateway(w, "Payment provider error", nil)

	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func principalOrReject(w http.ResponseWriter, r *http.Request) (utils.Principal, bool) {
	principal, ok := utils.GetPrincipal(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
	}
	return principal, ok
}
