package response

import (
	"time"

	"transport-booking/internal/data/entity"
)

type ReservationResponse struct {
	BookingID       string               `json:"booking_id"`
	OrderRef        string               `json:"order_ref"`
	Status          entity.BookingStatus `json:"status"`
	TotalPriceCents int64                `json:"total_price_cents"`
	Currency        string               `json:"currency"`
	SeatNumbers     []string             `json:"seat_numbers"`
	PaymentURL      string               `json:"payment_url,omitempty"`
	ExpiresAt       *time.Time           `json:"expires_at,omitempty"`
}

type PaymentSessionResponse struct {
	BookingID  string     `json:"booking_id"`
	PaymentURL string     `json:"payment_url"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

type CancelBookingResponse struct {
	BookingID string               `json:"booking_id"`
	Status    entity.BookingStatus `json:"status"`
	RefundID  string               `json:"refund_id,omitempty"`
}

type BookingResponse struct {
	ID              string               `json:"id"`
	OrderRef        string               `json:"order_ref"`
	UserID          string               `json:"user_id"`
	TripID          string               `json:"trip_id"`
	ScheduleID      string               `json:"schedule_id"`
	Status          entity.BookingStatus `json:"status"`
	TotalPriceCents int64                `json:"total_price_cents"`
	SeatCount       int                  `json:"seat_count"`
	SeatNumbers     []string             `json:"seat_numbers,omitempty"`
	PaymentIntentID *string              `json:"payment_intent_id,omitempty"`
	BookedAt        time.Time            `json:"booked_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

type PaymentResponse struct {
	ID                string               `json:"id"`
	BookingID         string               `json:"booking_id"`
	AmountCents       int64                `json:"amount_cents"`
	Currency          string               `json:"currency"`
	PaymentMethod     string               `json:"payment_method"`
	Status            entity.PaymentStatus `json:"status"`
	ProviderSessionID *string              `json:"provider_session_id,omitempty"`
	PaymentIntentID   *string              `json:"payment_intent_id,omitempty"`
	RefundID          *string              `json:"refund_id,omitempty"`
	PaidAt            *time.Time           `json:"paid_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
}

type WebhookAck struct {
	EventID string `json:"event_id"`
	Type    string `json:"type"`
	Result  string `json:"result"`
}

func BookingToResponse(b *entity.Booking, seatNumbers []string) BookingResponse {
	return BookingResponse{
		ID:              b.ID.String(),
		OrderRef:        b.OrderRef,
		UserID:          b.UserID.String(),
		TripID:          b.TripID.String(),
		ScheduleID:      b.ScheduleID.String(),
		Status:          b.Status,
		TotalPriceCents: b.TotalPriceCents,
		SeatCount:       b.SeatCount,
		SeatNumbers:     seatNumbers,
		PaymentIntentID: b.PaymentIntentID,
		BookedAt:        b.BookedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func PaymentToResponse(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                p.ID.String(),
		BookingID:         p.BookingID.String(),
		AmountCents:       p.AmountCents,
		Currency:          p.Currency,
		PaymentMethod:     p.PaymentMethod,
		Status:            p.Status,
		ProviderSessionID: p.ProviderSessionID,
		PaymentIntentID:   p.PaymentIntentID,
		RefundID:          p.RefundID,
		PaidAt:            p.PaidAt,
		CreatedAt:         p.CreatedAt,
	}
}
