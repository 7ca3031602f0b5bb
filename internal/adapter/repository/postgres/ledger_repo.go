package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// ledgerRepository implements domain.LedgerRepository. The table is
// append-only; there is no update or delete statement in this file on
// purpose.
type ledgerRepository struct {
	q queryer
}

// Create appends a ledger entry
func (r *ledgerRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	query := `
		INSERT INTO ledger_entries (id, wallet_id, type, counterparty_wallet_id, purpose, amount, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	var counterparty any
	if entry.CounterpartyWalletID != nil {
		counterparty = *entry.CounterpartyWalletID
	}

	_, err := r.q.ExecContext(ctx, query,
		entry.ID,
		entry.WalletID,
		string(entry.Type),
		counterparty,
		entry.Purpose,
		entry.Amount.String(),
		entry.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to insert ledger entry: %w", err)
	}

	return nil
}

// ListByWallet retrieves all entries for a wallet in insertion order
func (r *ledgerRepository) ListByWallet(ctx context.Context, walletID int64) ([]*domain.LedgerEntry, error) {
	query := `
		SELECT id, wallet_id, type, counterparty_wallet_id, purpose, amount, date
		FROM ledger_entries
		WHERE wallet_id = $1
		ORDER BY seq
	`

	rows, err := r.q.QueryContext(ctx, query, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.LedgerEntry, 0)
	for rows.Next() {
		var entry domain.LedgerEntry
		var counterparty sql.NullInt64
		var amountStr string

		if err := rows.Scan(
			&entry.ID,
			&entry.WalletID,
			&entry.Type,
			&counterparty,
			&entry.Purpose,
			&amountStr,
			&entry.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		if counterparty.Valid {
			id := counterparty.Int64
			entry.CounterpartyWalletID = &id
		}

		if entry.Amount, err = decimal.NewFromString(amountStr); err != nil {
			return nil, fmt.Errorf("failed to parse amount: %w", err)
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
