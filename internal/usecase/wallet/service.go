package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
	"github.com/coinharbor/exchange-backend/internal/locker"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
)

// DefaultIDAttempts bounds the wallet id collision-retry loop. The handle
// space holds 90000 ids, so hitting the bound means the space is close to
// exhausted and allocation fails rather than spinning.
const DefaultIDAttempts = 100

// WalletService handles balance custody and movement primitives. It is the
// sole writer of wallet balances: settlement, transfers, withdrawals, and
// deposits all change balances through it.
type WalletService struct {
	UoW    domain.UnitOfWork
	Repos  *domain.Repositories
	Ledger *ledger.LedgerService
	Locks  *locker.KeyedMutex

	// IDSource draws candidate wallet handles. Overridable in tests to force
	// collisions.
	IDSource func() int64

	// IDAttempts is the collision-retry bound for id allocation.
	IDAttempts int
}

// NewWalletService creates a new WalletService instance
func NewWalletService(
	uow domain.UnitOfWork,
	repos *domain.Repositories,
	ledgerService *ledger.LedgerService,
	locks *locker.KeyedMutex,
) *WalletService {
	return &WalletService{
		UoW:        uow,
		Repos:      repos,
		Ledger:     ledgerService,
		Locks:      locks,
		IDSource:   randomWalletID,
		IDAttempts: DefaultIDAttempts,
	}
}

func randomWalletID() int64 {
	return domain.WalletIDMin + rand.Int64N(domain.WalletIDMax-domain.WalletIDMin+1)
}

// GetOrCreateWallet returns the user's wallet, creating one with zero
// balance and a freshly allocated handle if the user has none yet.
func (s *WalletService) GetOrCreateWallet(ctx context.Context, userID uuid.UUID) (*domain.Wallet, error) {
	key := locker.UserWalletKey(userID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	var wallet *domain.Wallet
	err := s.UoW.Do(ctx, func(r *domain.Repositories) error {
		w, err := s.GetOrCreate(ctx, r, userID)
		if err != nil {
			return err
		}
		wallet = w
		return nil
	})
	if err != nil {
		return nil, err
	}

	return wallet, nil
}

// GetOrCreate is the transactional form of GetOrCreateWallet. The caller
// must hold the user's wallet lock and run inside a unit of work.
func (s *WalletService) GetOrCreate(ctx context.Context, r *domain.Repositories, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := r.Wallets.GetByUserID(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return nil, err
	}

	id, err := s.allocateID(ctx, r)
	if err != nil {
		return nil, err
	}

	wallet = &domain.Wallet{
		ID:      id,
		UserID:  userID,
		Balance: decimal.Zero,
	}

	if err := wallet.Validate(); err != nil {
		return nil, err
	}

	if err := r.Wallets.Create(ctx, wallet); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return wallet, nil
}

// allocateID draws random handles from the bounded wallet id range and
// retries on collision against the existing key space, up to IDAttempts.
func (s *WalletService) allocateID(ctx context.Context, r *domain.Repositories) (int64, error) {
	for i := 0; i < s.IDAttempts; i++ {
		id := s.IDSource()

		taken, err := r.Wallets.ExistsByID(ctx, id)
		if err != nil {
			return 0, err
		}
		if !taken {
			return id, nil
		}
	}

	return 0, domain.ErrWalletIDSpaceExhausted
}

// FindByID retrieves a wallet by its numeric handle.
func (s *WalletService) FindByID(ctx context.Context, walletID int64) (*domain.Wallet, error) {
	return s.Repos.Wallets.GetByID(ctx, walletID)
}

// AdjustBalance adds delta (positive or negative) to the wallet balance and
// persists it. It does NOT enforce non-negativity; callers that need a floor
// must check funds before debiting. The caller must hold the owning user's
// wallet lock and run inside a unit of work.
func (s *WalletService) AdjustBalance(ctx context.Context, r *domain.Repositories, wallet *domain.Wallet, delta decimal.Decimal) error {
	wallet.Balance = wallet.Balance.Add(delta)

	if err := r.Wallets.UpdateBalance(ctx, wallet); err != nil {
		return fmt.Errorf("failed to update wallet balance: %w", err)
	}

	return nil
}

// Transfer moves amount from the sender's wallet to the receiver wallet.
// Both balance updates and both ledger entries commit in one unit of work;
// a failure anywhere leaves neither wallet changed.
//
// Logic:
//  1. Resolve the receiver wallet (ErrWalletNotFound if the handle is bad)
//  2. Lock sender and receiver wallets in a stable order
//  3. Debit sender (ErrInsufficientFunds if balance < amount), credit receiver
//  4. Append a ledger entry on each side referencing the counterparty
//
// Returns the sender's post-transfer wallet.
func (s *WalletService) Transfer(
	ctx context.Context,
	senderUserID uuid.UUID,
	receiverWalletID int64,
	amount decimal.Decimal,
	purpose string,
) (*domain.Wallet, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("transfer amount must be positive")
	}

	// Read once outside the transaction to learn the receiver's owner, which
	// determines the second lock key. Re-read inside the unit of work.
	receiver, err := s.Repos.Wallets.GetByID(ctx, receiverWalletID)
	if err != nil {
		return nil, err
	}

	keys := []string{
		locker.UserWalletKey(senderUserID),
		locker.UserWalletKey(receiver.UserID),
	}
	s.Locks.LockAll(keys...)
	defer s.Locks.UnlockAll(keys...)

	var sender *domain.Wallet
	err = s.UoW.Do(ctx, func(r *domain.Repositories) error {
		sndr, err := s.GetOrCreate(ctx, r, senderUserID)
		if err != nil {
			return err
		}

		rcvr, err := r.Wallets.GetByID(ctx, receiverWalletID)
		if err != nil {
			return err
		}

		if sndr.ID == rcvr.ID {
			return errors.New("cannot transfer to own wallet")
		}

		if sndr.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		if err := s.AdjustBalance(ctx, r, sndr, amount.Neg()); err != nil {
			return err
		}
		if err := s.AdjustBalance(ctx, r, rcvr, amount); err != nil {
			return err
		}

		receiverID := rcvr.ID
		senderID := sndr.ID
		if _, err := s.Ledger.Record(ctx, r, sndr, domain.LedgerEntryTransfer, &receiverID, purpose, amount.Neg()); err != nil {
			return err
		}
		if _, err := s.Ledger.Record(ctx, r, rcvr, domain.LedgerEntryTransfer, &senderID, purpose, amount); err != nil {
			return err
		}

		sender = sndr
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sender, nil
}

// SettleOrderPayment applies an order's price to the user's wallet: a buy
// debits it, a sell credits it. This is the only path by which order
// settlement changes a balance. The caller must hold the user's wallet lock
// and run inside the settlement unit of work.
func (s *WalletService) SettleOrderPayment(ctx context.Context, r *domain.Repositories, order *domain.Order, userID uuid.UUID) (*domain.Wallet, error) {
	wallet, err := s.GetOrCreate(ctx, r, userID)
	if err != nil {
		return nil, err
	}

	if order.Side == domain.OrderSideBuy {
		if wallet.Balance.LessThan(order.Price) {
			return nil, domain.ErrInsufficientFunds
		}
		if err := s.AdjustBalance(ctx, r, wallet, order.Price.Neg()); err != nil {
			return nil, err
		}
	} else {
		if err := s.AdjustBalance(ctx, r, wallet, order.Price); err != nil {
			return nil, err
		}
	}

	return wallet, nil
}
