package domain

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod identifies the external provider a deposit is paid through
type PaymentMethod string

const (
	PaymentMethodStripe PaymentMethod = "STRIPE"
	PaymentMethodPaypal PaymentMethod = "PAYPAL"
)

// PaymentOrderStatus represents the state of a deposit payment order
type PaymentOrderStatus string

const (
	PaymentOrderStatusPending PaymentOrderStatus = "PENDING"
	PaymentOrderStatusSuccess PaymentOrderStatus = "SUCCESS"
	PaymentOrderStatusFailed  PaymentOrderStatus = "FAILED"
)

// PaymentOrder represents an externally paid deposit awaiting settlement.
// Only a PENDING order can settle, which is what makes deposit settlement
// idempotent: replaying a settle call never credits the wallet twice.
type PaymentOrder struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Amount decimal.Decimal
	Method PaymentMethod
	Status PaymentOrderStatus
}

// Validate ensures the payment order adheres to domain rules
// Returns an error if validation fails
func (p *PaymentOrder) Validate() error {
	if p.UserID == uuid.Nil {
		return errors.New("payment order must have an owning user")
	}

	if p.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("payment order amount must be positive")
	}

	if p.Method != PaymentMethodStripe && p.Method != PaymentMethodPaypal {
		return errors.New("payment method must be STRIPE or PAYPAL")
	}

	switch p.Status {
	case PaymentOrderStatusPending, PaymentOrderStatusSuccess, PaymentOrderStatusFailed:
	default:
		return errors.New("payment order status must be PENDING, SUCCESS, or FAILED")
	}

	return nil
}
