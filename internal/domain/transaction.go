package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerEntryType represents the kind of wallet mutation an entry records
type LedgerEntryType string

const (
	LedgerEntryTransfer     LedgerEntryType = "WALLET_TRANSFER"
	LedgerEntryWithdrawal   LedgerEntryType = "WITHDRAWAL"
	LedgerEntryOrderPayment LedgerEntryType = "ORDER_PAYMENT"
	LedgerEntryDeposit      LedgerEntryType = "DEPOSIT"
)

// LedgerEntry is an immutable audit record of one wallet balance change.
// Entries are append-only: once written they are never updated or deleted,
// independent of the wallet's current balance column. The signed amount is
// positive for credits and negative for debits, so the sum of a wallet's
// entries reconciles with its balance.
type LedgerEntry struct {
	ID                   uuid.UUID
	WalletID             int64
	Type                 LedgerEntryType
	CounterpartyWalletID *int64 // set on transfers: the other wallet involved
	Purpose              string
	Amount               decimal.Decimal // signed: credit > 0, debit < 0
	Date                 time.Time
}

// Validate ensures the ledger entry adheres to domain rules
// Returns an error if validation fails
func (e *LedgerEntry) Validate() error {
	if e.WalletID == 0 {
		return errors.New("ledger entry must reference a wallet")
	}

	switch e.Type {
	case LedgerEntryTransfer, LedgerEntryWithdrawal, LedgerEntryOrderPayment, LedgerEntryDeposit:
	default:
		return errors.New("ledger entry type must be WALLET_TRANSFER, WITHDRAWAL, ORDER_PAYMENT, or DEPOSIT")
	}

	if e.Amount.IsZero() {
		return errors.New("ledger entry amount cannot be zero")
	}

	return nil
}
