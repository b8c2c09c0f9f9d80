package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type PaymentRepository interface {
	// Upsert keeps one payment row per booking, refreshing session and status on retry.
	Upsert(ctx context.Context, payment *entity.Payment) error
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Payment, error)
	MarkSucceeded(ctx context.Context, bookingID uuid.UUID, paymentIntentID *string, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, bookingID uuid.UUID) error
	MarkRefunded(ctx context.Context, bookingID uuid.UUID, refundID string) error
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

func (r *paymentRepository) Upsert(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, amount_cents, currency, payment_method, status,
			provider_session_id, payment_intent_id, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (booking_id) DO UPDATE SET
			amount_cents = EXCLUDED.amount_cents,
			currency = EXCLUDED.currency,
			status = EXCLUDED.status,
			provider_session_id = COALESCE(EXCLUDED.provider_session_id, payments.provider_session_id),
			payment_intent_id = COALESCE(EXCLUDED.payment_intent_id, payments.payment_intent_id),
			paid_at = COALESCE(EXCLUDED.paid_at, payments.paid_at),
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := database.Conn(ctx, r.db).QueryRow(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.AmountCents,
		payment.Currency,
		payment.PaymentMethod,
		payment.Status,
		payment.ProviderSessionID,
		payment.PaymentIntentID,
		payment.PaidAt,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Scan(&payment.ID, &payment.CreatedAt)

	if err != nil {
		r.log.Error("Failed to upsert payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
		)
		return fmt.Errorf("upsert payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return nil
}

func (r *paymentRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	p, err := r.findOne(ctx, "booking_id = $1", bookingID)
	if err != nil {
		r.log.Error("Failed to find payment by booking ID",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find payment by booking ID %s: %w", bookingID.String(), err)
	}
	return p, nil
}

func (r *paymentRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Payment, error) {
	p, err := r.findOne(ctx, "payment_intent_id = $1", paymentIntentID)
	if err != nil {
		r.log.Error("Failed to find payment by intent",
			zap.Error(err),
			zap.String("payment_intent_id", paymentIntentID),
		)
		return nil, fmt.Errorf("find payment by intent %s: %w", paymentIntentID, err)
	}
	return p, nil
}

func (r *paymentRepository) findOne(ctx context.Context, where string, arg any) (*entity.Payment, error) {
	query := `
		SELECT id, booking_id, amount_cents, currency, payment_method, status,
			provider_session_id, payment_intent_id, refund_id, paid_at, created_at, updated_at
		FROM payments
		WHERE ` + where

	var p entity.Payment
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, arg).Scan(
		&p.ID,
		&p.BookingID,
		&p.AmountCents,
		&p.Currency,
		&p.PaymentMethod,
		&p.Status,
		&p.ProviderSessionID,
		&p.PaymentIntentID,
		&p.RefundID,
		&p.PaidAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *paymentRepository) MarkSucceeded(ctx context.Context, bookingID uuid.UUID, paymentIntentID *string, paidAt time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = 'succeeded',
			payment_intent_id = COALESCE($1, payment_intent_id),
			paid_at = $2,
			updated_at = NOW()
		WHERE booking_id = $3
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, paymentIntentID, paidAt, bookingID)
	if err != nil {
		r.log.Error("Failed to mark payment succeeded",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return false, fmt.Errorf("mark payment succeeded for booking %s: %w", bookingID.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, bookingID uuid.UUID) error {
	return r.setStatus(ctx, bookingID, entity.PaymentStatusFailed, nil)
}

// MarkRefunded keeps the stored refund id when refundID is empty.
func (r *paymentRepository) MarkRefunded(ctx context.Context, bookingID uuid.UUID, refundID string) error {
	var id *string
	if refundID != "" {
		id = &refundID
	}
	return r.setStatus(ctx, bookingID, entity.PaymentStatusRefunded, id)
}

func (r *paymentRepository) setStatus(ctx context.Context, bookingID uuid.UUID, status entity.PaymentStatus, refundID *string) error {
	query := `
		UPDATE payments
		SET status = $1, refund_id = COALESCE($2, refund_id), updated_at = NOW()
		WHERE booking_id = $3
	`

	if _, err := database.Conn(ctx, r.db).Exec(ctx, query, status, refundID, bookingID); err != nil {
		r.log.Error("Failed to update payment status",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update payment status for booking %s: %w", bookingID.String(), err)
	}

	return nil
}
