package adaptor

import (
	"io"
	"net/http"

	"transport-booking/internal/usecase"
	"transport-booking/pkg/utils"

	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	service usecase.WebhookService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.WebhookService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// Stripe handles POST /stripe/webhook. The raw body is needed to check the signature.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		h.log.Warn("Failed to read webhook body", zap.Error(err))
		utils.ResponseBadRequest(w, "Unreadable request body", nil)
		return
	}

	ack, err := h.service.Handle(r.Context(), r.Header.Get("Stripe-Signature"), payload)
	if err != nil {
		handleServiceError(w, h.log, err, "handle webhook")
		return
	}

	utils.ResponseSuccess(w, "received", ack)
}
