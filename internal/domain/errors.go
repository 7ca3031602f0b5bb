package domain

import "errors"

// Sentinel errors for the settlement core. Services return these (possibly
// wrapped) as the terminal outcome of an operation; nothing is retried
// internally. Callers discriminate with errors.Is.
var (
	// ErrInvalidQuantity is returned when a trade is submitted with a
	// quantity of zero or less.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")

	// ErrInstrumentUnavailable is returned when the price source cannot
	// quote the requested instrument.
	ErrInstrumentUnavailable = errors.New("instrument unavailable")

	// ErrAssetNotFound is returned when no position exists for a
	// (user, instrument) pair or a position id does not resolve.
	ErrAssetNotFound = errors.New("asset not found")

	// ErrInsufficientHoldings is returned when a sell requests more than
	// the position holds.
	ErrInsufficientHoldings = errors.New("insufficient quantity to sell")

	// ErrWalletNotFound is returned when a wallet identifier does not
	// resolve.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrInsufficientFunds is returned when a debit would not be coverable
	// by the wallet balance.
	ErrInsufficientFunds = errors.New("insufficient balance")

	// ErrOrderNotFound is returned when an order identifier does not
	// resolve.
	ErrOrderNotFound = errors.New("order not found")

	// ErrWithdrawalNotFound is returned when a withdrawal identifier does
	// not resolve.
	ErrWithdrawalNotFound = errors.New("withdraw request not found")

	// ErrPaymentOrderNotFound is returned when a payment order identifier
	// does not resolve.
	ErrPaymentOrderNotFound = errors.New("payment order not found")

	// ErrUnauthorized is returned when a user tries to access another
	// user's order, wallet, or payment order.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnauthenticated is returned by the identity resolver when a
	// credential does not resolve to a user.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrWalletIDSpaceExhausted is returned when wallet id allocation gives
	// up after the configured number of collision retries.
	ErrWalletIDSpaceExhausted = errors.New("wallet id space exhausted")
)
