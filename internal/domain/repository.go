package domain

import (
	"context"

	"github.com/google/uuid"
)

// WalletRepository defines the interface for wallet persistence operations
type WalletRepository interface {
	// GetByID retrieves a wallet by its numeric handle
	// Returns ErrWalletNotFound if the handle does not resolve
	GetByID(ctx context.Context, id int64) (*Wallet, error)

	// GetByUserID retrieves the wallet owned by a user
	// Returns ErrWalletNotFound if the user has no wallet yet
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Wallet, error)

	// ExistsByID reports whether a wallet handle is already taken.
	// Used by the id allocator's collision-retry loop.
	ExistsByID(ctx context.Context, id int64) (bool, error)

	// Create creates a new wallet
	Create(ctx context.Context, wallet *Wallet) error

	// UpdateBalance persists a new balance for an existing wallet
	UpdateBalance(ctx context.Context, wallet *Wallet) error
}

// AssetRepository defines the interface for asset position persistence operations
type AssetRepository interface {
	// GetByID retrieves an asset by its ID
	// Returns ErrAssetNotFound if the id does not resolve
	GetByID(ctx context.Context, id uuid.UUID) (*Asset, error)

	// FindByUserAndInstrument retrieves the single position a user holds in
	// an instrument. Returns ErrAssetNotFound when no position exists;
	// callers use absence to decide between opening and updating a position.
	FindByUserAndInstrument(ctx context.Context, userID uuid.UUID, instrumentID string) (*Asset, error)

	// ListByUser retrieves all positions held by a user
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Asset, error)

	// Create creates a new asset position
	Create(ctx context.Context, asset *Asset) error

	// Update persists changes to an existing asset position
	Update(ctx context.Context, asset *Asset) error

	// Delete removes an asset position
	Delete(ctx context.Context, id uuid.UUID) error
}

// OrderRepository defines the interface for order persistence operations
type OrderRepository interface {
	// GetByID retrieves an order with its order item
	// Returns ErrOrderNotFound if the id does not resolve
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// ListByUser retrieves a user's orders, newest first, narrowed by filter
	ListByUser(ctx context.Context, userID uuid.UUID, filter OrderFilter) ([]*Order, error)

	// Create creates an order together with its order item
	Create(ctx context.Context, order *Order) error

	// Update persists changes to an existing order and its item
	Update(ctx context.Context, order *Order) error
}

// LedgerRepository defines the interface for the append-only transaction ledger.
// There is deliberately no update or delete: entries are the audit trail.
type LedgerRepository interface {
	// Create appends a ledger entry
	Create(ctx context.Context, entry *LedgerEntry) error

	// ListByWallet retrieves all entries for a wallet in insertion order
	ListByWallet(ctx context.Context, walletID int64) ([]*LedgerEntry, error)
}

// WithdrawalRepository defines the interface for withdrawal persistence operations
type WithdrawalRepository interface {
	// GetByID retrieves a withdrawal by its ID
	// Returns ErrWithdrawalNotFound if the id does not resolve
	GetByID(ctx context.Context, id uuid.UUID) (*Withdrawal, error)

	// ListByUser retrieves all withdrawals requested by a user
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Withdrawal, error)

	// ListAll retrieves every withdrawal request (admin view)
	ListAll(ctx context.Context) ([]*Withdrawal, error)

	// Create creates a new withdrawal request
	Create(ctx context.Context, withdrawal *Withdrawal) error

	// Update persists the resolution of a withdrawal request
	Update(ctx context.Context, withdrawal *Withdrawal) error
}

// PaymentOrderRepository defines the interface for payment order persistence operations
type PaymentOrderRepository interface {
	// GetByID retrieves a payment order by its ID
	// Returns ErrPaymentOrderNotFound if the id does not resolve
	GetByID(ctx context.Context, id uuid.UUID) (*PaymentOrder, error)

	// Create creates a new payment order
	Create(ctx context.Context, order *PaymentOrder) error

	// Update persists a payment order status change
	Update(ctx context.Context, order *PaymentOrder) error
}

// Repositories bundles every repository bound to one persistence scope:
// either the auto-commit store (for reads) or a single transaction inside
// UnitOfWork.Do (for mutations).
type Repositories struct {
	Wallets       WalletRepository
	Assets        AssetRepository
	Orders        OrderRepository
	Ledger        LedgerRepository
	Withdrawals   WithdrawalRepository
	PaymentOrders PaymentOrderRepository
}

// UnitOfWork runs a function against repositories bound to one transactional
// scope. Everything the function writes becomes visible together when it
// returns nil; any error discards all of it. This is the boundary that makes
// "order settlement touches wallet + position + ledger" all-or-nothing.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(r *Repositories) error) error
}
