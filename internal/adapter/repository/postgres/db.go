package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=exchange sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx, so the same repository
// code serves auto-commit reads and unit-of-work transactions.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewRepositories returns repositories bound to the auto-commit connection.
func NewRepositories(db *DB) *domain.Repositories {
	return bind(db.DB)
}

func bind(q queryer) *domain.Repositories {
	return &domain.Repositories{
		Wallets:       &walletRepository{q: q},
		Assets:        &assetRepository{q: q},
		Orders:        &orderRepository{q: q},
		Ledger:        &ledgerRepository{q: q},
		Withdrawals:   &withdrawalRepository{q: q},
		PaymentOrders: &paymentOrderRepository{q: q},
	}
}
