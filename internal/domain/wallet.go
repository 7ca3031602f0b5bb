package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Wallet id handles are short numeric values so they can be read over the
// phone or typed into a transfer form. Allocation draws randomly from this
// range and retries on collision.
const (
	WalletIDMin int64 = 10000
	WalletIDMax int64 = 99999
)

// Wallet represents a custodial balance record owned by exactly one user.
// The balance is mutated only through the wallet service; every mutation is
// mirrored by a ledger entry written in the same unit of work.
type Wallet struct {
	ID      int64
	UserID  uuid.UUID
	Balance decimal.Decimal
}

// Validate ensures the wallet adheres to domain rules
// Returns an error if validation fails
func (w *Wallet) Validate() error {
	if w.ID < WalletIDMin || w.ID > WalletIDMax {
		return errors.New("wallet id must be a five-digit handle")
	}

	if w.UserID == uuid.Nil {
		return errors.New("wallet must have an owning user")
	}

	return nil
}
