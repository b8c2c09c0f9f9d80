package wire

import (
	"net/http"

	"transport-booking/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	authenticated func(http.Handler) http.Handler,
	idempotent func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticated)

		// POST /api/reservation - Hold seats and open a checkout session
		r.With(idempotent).Post("/api/reservation", bookingHandler.Reserve)

		// GET /api/user/bookings - Booking history of the caller
		r.Get("/api/user/bookings", bookingHandler.GetUserBookings)

		r.Get("/api/bookings/{id}", bookingHandler.GetBooking)

		// POST /api/bookings/{id}/cancel - Cancel a pending booking, releasing its seats
		r.Post("/api/bookings/{id}/cancel", bookingHandler.Cancel)

		// GET /api/bookings/{id}/ticket - PDF ticket of a paid booking
		r.Get("/api/bookings/{id}/ticket", bookingHandler.Ticket)
	})
}
