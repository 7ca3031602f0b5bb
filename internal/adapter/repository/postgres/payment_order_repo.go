package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// paymentOrderRepository implements domain.PaymentOrderRepository
type paymentOrderRepository struct {
	q queryer
}

// GetByID retrieves a payment order by its ID
func (r *paymentOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentOrder, error) {
	query := `
		SELECT id, user_id, amount, method, status
		FROM payment_orders
		WHERE id = $1
	`

	var order domain.PaymentOrder
	var amountStr string

	err := r.q.QueryRowContext(ctx, query, id).Scan(&order.ID, &order.UserID, &amountStr, &order.Method, &order.Status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPaymentOrderNotFound
		}
		return nil, fmt.Errorf("failed to get payment order: %w", err)
	}

	if order.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	return &order, nil
}

// Create creates a new payment order
func (r *paymentOrderRepository) Create(ctx context.Context, order *domain.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (id, user_id, amount, method, status)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.UserID,
		order.Amount.String(),
		string(order.Method),
		string(order.Status),
	)
	if err != nil {
		return fmt.Errorf("failed to create payment order: %w", err)
	}

	return nil
}

// Update persists a payment order status change
func (r *paymentOrderRepository) Update(ctx context.Context, order *domain.PaymentOrder) error {
	query := `
		UPDATE payment_orders
		SET status = $2
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, order.ID, string(order.Status))
	if err != nil {
		return fmt.Errorf("failed to update payment order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrPaymentOrderNotFound
	}

	return nil
}
