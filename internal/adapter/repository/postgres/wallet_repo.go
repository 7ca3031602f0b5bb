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

// walletRepository implements domain.WalletRepository
type walletRepository struct {
	q queryer
}

func scanWallet(row *sql.Row) (*domain.Wallet, error) {
	var wallet domain.Wallet
	var balanceStr string

	err := row.Scan(&wallet.ID, &wallet.UserID, &balanceStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}

	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance: %w", err)
	}
	wallet.Balance = balance

	return &wallet, nil
}

// GetByID retrieves a wallet by its numeric handle
func (r *walletRepository) GetByID(ctx context.Context, id int64) (*domain.Wallet, error) {
	query := `
		SELECT id, user_id, balance
		FROM wallets
		WHERE id = $1
	`

	return scanWallet(r.q.QueryRowContext(ctx, query, id))
}

// GetByUserID retrieves the wallet owned by a user
func (r *walletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	query := `
		SELECT id, user_id, balance
		FROM wallets
		WHERE user_id = $1
	`

	return scanWallet(r.q.QueryRowContext(ctx, query, userID))
}

// ExistsByID reports whether a wallet handle is already taken
func (r *walletRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM wallets WHERE id = $1)
	`

	var exists bool
	if err := r.q.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check wallet existence: %w", err)
	}

	return exists, nil
}

// Create creates a new wallet
func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		INSERT INTO wallets (id, user_id, balance)
		VALUES ($1, $2, $3)
	`

	_, err := r.q.ExecContext(ctx, query,
		wallet.ID,
		wallet.UserID,
		wallet.Balance.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	return nil
}

// UpdateBalance persists a new balance for an existing wallet
func (r *walletRepository) UpdateBalance(ctx context.Context, wallet *domain.Wallet) error {
	query := `
		UPDATE wallets
		SET balance = $2
		WHERE id = $1
	`

	result, err := r.q.ExecContext(ctx, query, wallet.ID, wallet.Balance.String())
	if err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return domain.ErrWalletNotFound
	}

	return nil
}
