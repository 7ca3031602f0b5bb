package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceSource quotes the current price of an instrument in quote currency.
// The settlement engine fetches the price once per order, before entering
// the settlement transaction, and never re-queries mid-settlement.
type PriceSource interface {
	// CurrentPrice returns the instrument's current unit price
	// Returns ErrInstrumentUnavailable for unknown instruments
	CurrentPrice(ctx context.Context, instrumentID string) (decimal.Decimal, error)
}

// IdentityResolver resolves a caller credential to a user identifier.
// Authentication itself (sessions, JWT, passwords) lives outside the core.
type IdentityResolver interface {
	// Resolve returns the user owning the credential
	// Returns ErrUnauthenticated if the credential does not resolve
	Resolve(ctx context.Context, credential string) (uuid.UUID, error)
}

// Notifier delivers outbound notifications fire-and-forget. Implementations
// must swallow delivery failures (logging them), never propagate them to the
// caller of a settlement operation.
type Notifier interface {
	Notify(ctx context.Context, destination, payload string)
}

// PaymentGateway verifies that an external payment backing a deposit was
// actually captured by the provider.
type PaymentGateway interface {
	// VerifyPayment reports whether the external payment identified by
	// externalPaymentID covers the given payment order
	VerifyPayment(ctx context.Context, order *PaymentOrder, externalPaymentID string) (bool, error)
}
