package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// unitOfWork implements domain.UnitOfWork on a database transaction. The
// wallet, position, order, and ledger writes of one settlement all go
// through repositories bound to the same *sql.Tx and become visible
// together on commit.
type unitOfWork struct {
	db *DB
}

// NewUnitOfWork creates a new unit of work backed by the database
func NewUnitOfWork(db *DB) domain.UnitOfWork {
	return &unitOfWork{db: db}
}

// Do runs fn against repositories bound to one transaction. Any error rolls
// the whole transaction back.
func (u *unitOfWork) Do(ctx context.Context, fn func(r *domain.Repositories) error) error {
	tx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(bind(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
