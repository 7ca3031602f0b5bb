package withdrawal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coinharbor/exchange-backend/internal/domain"
	"github.com/coinharbor/exchange-backend/internal/locker"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
	"github.com/coinharbor/exchange-backend/internal/usecase/wallet"
)

// WithdrawalService handles the request -> review -> settle workflow.
// Requesting a withdrawal debits the wallet immediately (the hold); the
// administrative decision either makes the hold permanent or credits it
// back.
type WithdrawalService struct {
	UoW      domain.UnitOfWork
	Repos    *domain.Repositories
	Wallet   *wallet.WalletService
	Ledger   *ledger.LedgerService
	Locks    *locker.KeyedMutex
	Notifier domain.Notifier
	Logger   *zap.Logger
}

// NewWithdrawalService creates a new WithdrawalService instance
func NewWithdrawalService(
	uow domain.UnitOfWork,
	repos *domain.Repositories,
	walletService *wallet.WalletService,
	ledgerService *ledger.LedgerService,
	locks *locker.KeyedMutex,
	notifier domain.Notifier,
	logger *zap.Logger,
) *WithdrawalService {
	return &WithdrawalService{
		UoW:      uow,
		Repos:    repos,
		Wallet:   walletService,
		Ledger:   ledgerService,
		Locks:    locks,
		Notifier: notifier,
		Logger:   logger,
	}
}

// Request creates a PENDING withdrawal and immediately debits the
// requesting wallet so the held funds leave the visible balance while the
// request is open. The hold and its ledger entry commit in one unit of
// work; a hold that the balance cannot cover fails ErrInsufficientFunds.
func (s *WithdrawalService) Request(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) (*domain.Withdrawal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("withdrawal amount must be positive")
	}

	key := locker.UserWalletKey(userID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	withdrawal := &domain.Withdrawal{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		Status: domain.WithdrawalStatusPending,
		Date:   time.Now(),
	}

	if err := withdrawal.Validate(); err != nil {
		return nil, err
	}

	err := s.UoW.Do(ctx, func(r *domain.Repositories) error {
		w, err := s.Wallet.GetOrCreate(ctx, r, userID)
		if err != nil {
			return err
		}

		if w.Balance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}

		if err := r.Withdrawals.Create(ctx, withdrawal); err != nil {
			return fmt.Errorf("failed to create withdrawal: %w", err)
		}

		if err := s.Wallet.AdjustBalance(ctx, r, w, amount.Neg()); err != nil {
			return err
		}

		_, err = s.Ledger.Record(ctx, r, w, domain.LedgerEntryWithdrawal, nil, "Withdrawal request", amount.Neg())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Notifier.Notify(ctx, userID.String(),
		fmt.Sprintf("Withdrawal of %s requested and pending review", amount.String()))

	return withdrawal, nil
}

// Decide resolves a PENDING withdrawal exactly once. Declining credits the
// held amount back to the requester's wallet; accepting makes the hold
// permanent (the debit already happened at request time).
func (s *WithdrawalService) Decide(ctx context.Context, withdrawalID uuid.UUID, accept bool) (*domain.Withdrawal, error) {
	// Read once outside the transaction to learn the requester, which
	// determines the lock key. Re-read inside the unit of work.
	existing, err := s.Repos.Withdrawals.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}

	key := locker.UserWalletKey(existing.UserID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	var resolved *domain.Withdrawal
	err = s.UoW.Do(ctx, func(r *domain.Repositories) error {
		withdrawal, err := r.Withdrawals.GetByID(ctx, withdrawalID)
		if err != nil {
			return err
		}

		if withdrawal.Resolved() {
			return fmt.Errorf("withdrawal %s already resolved as %s", withdrawal.ID, withdrawal.Status)
		}

		withdrawal.Date = time.Now()
		if accept {
			withdrawal.Status = domain.WithdrawalStatusSuccess
		} else {
			withdrawal.Status = domain.WithdrawalStatusDeclined
		}

		if err := r.Withdrawals.Update(ctx, withdrawal); err != nil {
			return fmt.Errorf("failed to update withdrawal: %w", err)
		}

		if !accept {
			w, err := s.Wallet.GetOrCreate(ctx, r, withdrawal.UserID)
			if err != nil {
				return err
			}

			if err := s.Wallet.AdjustBalance(ctx, r, w, withdrawal.Amount); err != nil {
				return err
			}

			if _, err := s.Ledger.Record(ctx, r, w, domain.LedgerEntryWithdrawal, nil, "Withdrawal declined, funds returned", withdrawal.Amount); err != nil {
				return err
			}
		}

		resolved = withdrawal
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("withdrawal resolved",
		zap.String("withdrawal_id", resolved.ID.String()),
		zap.String("user_id", resolved.UserID.String()),
		zap.String("status", string(resolved.Status)),
	)
	s.Notifier.Notify(ctx, resolved.UserID.String(),
		fmt.Sprintf("Withdrawal of %s resolved: %s", resolved.Amount.String(), resolved.Status))

	return resolved, nil
}

// ListForUser returns the user's withdrawal history.
func (s *WithdrawalService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Withdrawal, error) {
	return s.Repos.Withdrawals.ListByUser(ctx, userID)
}

// ListAll returns every withdrawal request (admin view).
func (s *WithdrawalService) ListAll(ctx context.Context) ([]*domain.Withdrawal, error) {
	return s.Repos.Withdrawals.ListAll(ctx)
}
