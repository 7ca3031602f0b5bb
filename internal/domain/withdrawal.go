package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalStatus represents the state of a withdrawal request
// PENDING moves to exactly one of SUCCESS or DECLINED on an administrative
// decision; both are terminal.
type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "PENDING"
	WithdrawalStatusSuccess  WithdrawalStatus = "SUCCESS"
	WithdrawalStatusDeclined WithdrawalStatus = "DECLINED"
)

// Withdrawal represents a request to move funds out of the platform.
// The requested amount is debited from the wallet when the request is
// created (the hold); a decline credits it back, an accept makes the hold
// permanent.
type Withdrawal struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Amount decimal.Decimal
	Status WithdrawalStatus
	Date   time.Time
}

// Validate ensures the withdrawal adheres to domain rules
// Returns an error if validation fails
func (w *Withdrawal) Validate() error {
	if w.UserID == uuid.Nil {
		return errors.New("withdrawal must have an owning user")
	}

	if w.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("withdrawal amount must be positive")
	}

	switch w.Status {
	case WithdrawalStatusPending, WithdrawalStatusSuccess, WithdrawalStatusDeclined:
	default:
		return errors.New("withdrawal status must be PENDING, SUCCESS, or DECLINED")
	}

	return nil
}

// Resolved reports whether the request has reached a terminal state.
func (w *Withdrawal) Resolved() bool {
	return w.Status != WithdrawalStatusPending
}
