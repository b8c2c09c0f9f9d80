package repository

import (
	"context"
	"errors"
	"fmt"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RefundRepository interface {
	// Create stores the refund and reports false when the intent was already refunded.
	Create(ctx context.Context, refund *entity.Refund) (bool, error)
	FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Refund, error)
}

type refundRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRefundRepository(db database.PgxIface, log *zap.Logger) RefundRepository {
	return &refundRepository{
		db:  db,
		log: log.With(zap.String("repository", "refund")),
	}
}

func (r *refundRepository) Create(ctx context.Context, refund *entity.Refund) (bool, error) {
	query := `
		INSERT INTO refunds (id, booking_id, payment_intent_id, refund_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (payment_intent_id) DO NOTHING
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		refund.ID,
		refund.BookingID,
		refund.PaymentIntentID,
		refund.RefundID,
		refund.Reason,
		refund.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to record refund",
			zap.Error(err),
			zap.String("booking_id", refund.BookingID.String()),
			zap.String("payment_intent_id", refund.PaymentIntentID),
		)
		return false, fmt.Errorf("record refund for intent %s: %w", refund.PaymentIntentID, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *refundRepository) FindByPaymentIntentID(ctx context.Context, paymentIntentID string) (*entity.Refund, error) {
	query := `
		SELECT id, booking_id, payment_intent_id, refund_id, reason, created_at
		FROM refunds
		WHERE payment_intent_id = $1
	`

	var refund entity.Refund
	err := database.Conn(ctx, r.db).QueryRow(ctx, query, paymentIntentID).Scan(
		&refund.ID,
		&refund.BookingID,
		&refund.PaymentIntentID,
		&refund.RefundID,
		&refund.Reason,
		&refund.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find refund by payment intent",
			zap.Error(err),
			zap.String("payment_intent_id", paymentIntentID),
		)
		return nil, fmt.Errorf("find refund by payment intent %s: %w", paymentIntentID, err)
	}

	return &refund, nil
}
