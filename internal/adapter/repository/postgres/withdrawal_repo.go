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

// withdrawalRepository implements domain.WithdrawalRepository
type withdrawalRepository struct {
	q queryer
}

func (r *withdrawalRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Withdrawal, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	withdrawals := make([]*domain.Withdrawal, 0)
	for rows.Next() {
		var w domain.Withdrawal
		var amountStr string

		if err := rows.Scan(&w.ID, &w.UserID, &amountStr, &w.Status, &w.Date); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}

		if w.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}

		withdrawals = append(withdrawals, &w)
	}

	return withdrawals, rows.Err()
}

// GetByID retrieves a withdrawal by its ID
func (r *withdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, status, date
		FROM withdrawals
		WHERE id = $1
	`

	var w domain.Withdrawal
	var amountStr string

	err := r.q.QueryRowContext(ctx, query, id).Scan(&w.ID, &w.UserID, &amountStr, &w.Status, &w.Date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("failed to get withdrawal: %w", err)
	}

	if w.Amount, err = decimal.NewFromString(amountStr); err != nil {
		return nil, fmt.Errorf("failed to parse amount: %w", err)
	}

	return &w, nil
}

// ListByUser retrieves all withdrawals requested by a user
func (r *withdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, status, date
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY date DESC
	`

	return r.list(ctx, query, userID)
}

// ListAll retrieves every withdrawal request (admin view)
func (r *withdrawalRepository) ListAll(ctx context.Context) ([]*domain.Withdrawal, error) {
	query := `
		SELECT id, user_id, amount, status, date
		FROM withdrawals
		ORDER BY date DESC
	`

	return r.list(ctx, query)
}

// Create creates a new withdrawal request
func (r *withdrawalRepository) Create(ctx context.Context, withdrawal *domain.Withdrawal) error {
	query := `
		INSERT INTO withdrawals (id, user_id, amount, status, date)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		withdrawal.ID,
		withdrawal.UserID,
		withdrawal.Amount.String(),
		string(withdrawal.Status),
		withdrawal.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}

	return nil
}

// Update persists the resolution of a withdrawal request
func (r *withdrawalRepository) Update(ctx context.Context, withdrawal *domain.Withdrawal) error {
	query := `
		UPDATE withdrawals
		SET status = $2, date = $3
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, withdrawal.ID, string(withdrawal.Status), withdrawal.Date)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrWithdrawalNotFound
	}

	return nil
}
