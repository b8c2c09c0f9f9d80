package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"transport-booking/pkg/utils"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const (
	eventCheckoutCompleted      = "checkout.session.completed"
	eventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	eventCheckoutExpired        = "checkout.session.expired"
	eventChargeRefunded         = "charge.refunded"

	maxSessionLifetime = 24 * time.Hour
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
	frontendURL   string
	log           *zap.Logger
}

func NewStripeGateway(cfg utils.PaymentConfig, log *zap.Logger) *StripeGateway {
	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	return &StripeGateway{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		frontendURL:   cfg.FrontendURL,
		log:           log.With(zap.String("gateway", "stripe")),
	}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	bookingID := req.BookingID.String()

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(g.frontendURL + "/booking/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:          stripe.String(g.frontendURL + "/booking/cancel?booking_id=" + bookingID),
		ClientReferenceID:  stripe.String(bookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{MetadataBookingID: bookingID},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.AddMetadata(MetadataBookingID, bookingID)
	params.AddMetadata("order_ref", req.OrderRef)
	params.ExpiresAt = stripe.Int64(sessionDeadline(req.ExpiresAt, time.Now()).Unix())
	params.Context = ctx

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.log.Error("Failed to create checkout session",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return nil, fmt.Errorf("create checkout session for booking %s: %w", bookingID, err)
	}

	g.log.Info("Checkout session created",
		zap.String("booking_id", bookingID),
		zap.String("session_id", session.ID),
	)

	return &CheckoutSession{
		ID:        session.ID,
		URL:       session.URL,
		ExpiresAt: time.Unix(session.ExpiresAt, 0),
	}, nil
}

// sessionDeadline keeps the requested expiry inside the window Stripe accepts.
func sessionDeadline(requested, now time.Time) time.Time {
	earliest := now.Add(MinSessionLifetime + time.Minute)
	latest := now.Add(maxSessionLifetime)
	switch {
	case requested.Before(earliest):
		return earliest
	case requested.After(latest):
		return latest
	default:
		return requested
	}
}

func (g *StripeGateway) ExpireSession(ctx context.Context, sessionID string) error {
	getParams := &stripe.CheckoutSessionParams{}
	getParams.Context = ctx

	session, err := g.api.CheckoutSessions.Get(sessionID, getParams)
	if err != nil {
		g.log.Error("Failed to load checkout session",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return fmt.Errorf("load checkout session %s: %w", sessionID, err)
	}

	switch session.Status {
	case stripe.CheckoutSessionStatusExpired:
		return nil
	case stripe.CheckoutSessionStatusComplete:
		return fmt.Errorf("%w: %s", ErrSessionCompleted, sessionID)
	}

	params := &stripe.CheckoutSessionExpireParams{}
	params.Context = ctx
	if _, err := g.api.CheckoutSessions.Expire(sessionID, params); err != nil {
		g.log.Error("Failed to expire checkout session",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
		return fmt.Errorf("expire checkout session %s: %w", sessionID, err)
	}

	g.log.Info("Checkout session expired", zap.String("session_id", sessionID))
	return nil
}

func (g *StripeGateway) Refund(ctx context.Context, paymentIntentID string) (string, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	}
	params.SetIdempotencyKey("refund-" + paymentIntentID)
	params.Context = ctx

	refund, err := g.api.Refunds.New(params)
	if err != nil {
		g.log.Error("Failed to refund payment",
			zap.Error(err),
			zap.String("payment_intent_id", paymentIntentID),
		)
		return "", fmt.Errorf("refund payment intent %s: %w", paymentIntentID, err)
	}

	return refund.ID, nil
}

// ParseEvent verifies the Stripe-Signature header and narrows the event to the
// checkout and refund events the reconciler acts on.
func (g *StripeGateway) ParseEvent(payload []byte, signatureHeader string) (Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, g.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	switch string(event.Type) {
	case eventCheckoutCompleted, eventCheckoutAsyncSucceeded:
		var session stripe.CheckoutSession
		if err := decodeObject(event, &session); err != nil {
			return nil, err
		}
		completed := CheckoutCompleted{
			ID:            event.ID,
			SessionID:     session.ID,
			BookingID:     session.Metadata[MetadataBookingID],
			CustomerEmail: session.CustomerEmail,
		}
		if session.PaymentIntent != nil {
			completed.PaymentIntentID = session.PaymentIntent.ID
		}
		if completed.CustomerEmail == "" && session.CustomerDetails != nil {
			completed.CustomerEmail = session.CustomerDetails.Email
		}
		return completed, nil

	case eventCheckoutExpired:
		var session stripe.CheckoutSession
		if err := decodeObject(event, &session); err != nil {
			return nil, err
		}
		return CheckoutExpired{
			ID:        event.ID,
			SessionID: session.ID,
			BookingID: session.Metadata[MetadataBookingID],
		}, nil

	case eventChargeRefunded:
		var charge stripe.Charge
		if err := decodeObject(event, &charge); err != nil {
			return nil, err
		}
		// partial refunds leave the booking paid
		if !charge.Refunded {
			return UnknownEvent{ID: event.ID, Type: string(event.Type)}, nil
		}
		refunded := ChargeRefunded{
			ID:        event.ID,
			BookingID: charge.Metadata[MetadataBookingID],
		}
		if charge.PaymentIntent != nil {
			refunded.PaymentIntentID = charge.PaymentIntent.ID
		}
		if charge.Refunds != nil && len(charge.Refunds.Data) > 0 {
			refunded.RefundID = charge.Refunds.Data[0].ID
		}
		return refunded, nil

	default:
		return UnknownEvent{ID: event.ID, Type: string(event.Type)}, nil
	}
}

func decodeObject(event stripe.Event, v any) error {
	if event.Data == nil {
		return fmt.Errorf("event %s has no data", event.ID)
	}
	if err := json.Unmarshal(event.Data.Raw, v); err != nil {
		return fmt.Errorf("decode %s object of event %s: %w", event.Type, event.ID, err)
	}
	return nil
}
