package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

// LedgerService handles the append-only wallet transaction ledger
type LedgerService struct {
	Repos *domain.Repositories
}

// NewLedgerService creates a new LedgerService instance
func NewLedgerService(repos *domain.Repositories) *LedgerService {
	return &LedgerService{
		Repos: repos,
	}
}

// Record appends a ledger entry stamped with the current date. It runs
// against the caller's repositories so the entry commits in the same unit of
// work as the balance mutation it describes.
func (s *LedgerService) Record(
	ctx context.Context,
	r *domain.Repositories,
	wallet *domain.Wallet,
	entryType domain.LedgerEntryType,
	counterpartyWalletID *int64,
	purpose string,
	amount decimal.Decimal,
) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{
		ID:                   uuid.New(),
		WalletID:             wallet.ID,
		Type:                 entryType,
		CounterpartyWalletID: counterpartyWalletID,
		Purpose:              purpose,
		Amount:               amount,
		Date:                 time.Now(),
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if err := r.Ledger.Create(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListForWallet returns all entries for a wallet in insertion order.
func (s *LedgerService) ListForWallet(ctx context.Context, walletID int64) ([]*domain.LedgerEntry, error) {
	return s.Repos.Ledger.ListByWallet(ctx, walletID)
}
