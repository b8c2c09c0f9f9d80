package wire

import (
	"net/http"

	"transport-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	webhookHandler *adaptor.WebhookHandler,
	authenticated func(http.Handler) http.Handler,
	idempotent func(http.Handler) http.Handler,
) {
	// ==================== PROTECTED ROUTES ====================
	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		r.With(idempotent).Post("/api/retry-payment", paymentHandler.RetryPayment)
		r.With(idempotent).Post("/api/cancel-trip", paymentHandler.CancelTrip)
		r.Get("/api/payment-status", paymentHandler.PaymentStatus)
	})

	// ==================== PROVIDER CALLBACKS ====================
	// POST /stripe/webhook - Authenticated by the Stripe-Signature header, not a session
	r.Post("/stripe/webhook", webhookHandler.Stripe)
}
