package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Asset represents a user's holding of one instrument: the quantity held and
// the average acquisition price (cost basis). At most one asset exists per
// (user, instrument) pair.
type Asset struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	InstrumentID string
	Quantity     decimal.Decimal
	BuyPrice     decimal.Decimal // cost basis, set when the position is opened
}

// Validate ensures the asset adheres to domain rules
// Returns an error if validation fails
func (a *Asset) Validate() error {
	if a.UserID == uuid.Nil {
		return errors.New("asset must have an owning user")
	}

	if a.InstrumentID == "" {
		return errors.New("asset must reference an instrument")
	}

	// Quantity may legitimately sit at zero after a full sell; it must never
	// go negative once an operation has settled.
	if a.Quantity.IsNegative() {
		return errors.New("asset quantity cannot be negative")
	}

	if a.BuyPrice.IsNegative() {
		return errors.New("asset buy price cannot be negative")
	}

	return nil
}

// MarketValue returns the current worth of the position at the given unit
// price. The settlement engine compares this against the dust threshold to
// decide whether a residual position is kept or removed.
func (a *Asset) MarketValue(unitPrice decimal.Decimal) decimal.Decimal {
	return a.Quantity.Mul(unitPrice)
}
