package deposit

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coinharbor/exchange-backend/internal/domain"
	"github.com/coinharbor/exchange-backend/internal/locker"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
	"github.com/coinharbor/exchange-backend/internal/usecase/wallet"
)

// DepositService settles externally paid deposits into wallet balances.
// A payment order is created PENDING when the user starts a deposit; once
// the provider captures the payment, settling the order verifies it with
// the gateway and credits the wallet.
type DepositService struct {
	UoW     domain.UnitOfWork
	Repos   *domain.Repositories
	Wallet  *wallet.WalletService
	Ledger  *ledger.LedgerService
	Gateway domain.PaymentGateway
	Locks   *locker.KeyedMutex
}

// NewDepositService creates a new DepositService instance
func NewDepositService(
	uow domain.UnitOfWork,
	repos *domain.Repositories,
	walletService *wallet.WalletService,
	ledgerService *ledger.LedgerService,
	gateway domain.PaymentGateway,
	locks *locker.KeyedMutex,
) *DepositService {
	return &DepositService{
		UoW:     uow,
		Repos:   repos,
		Wallet:  walletService,
		Ledger:  ledgerService,
		Gateway: gateway,
		Locks:   locks,
	}
}

// CreatePaymentOrder opens a PENDING payment order for the amount the user
// intends to deposit through the given method.
func (s *DepositService) CreatePaymentOrder(
	ctx context.Context,
	userID uuid.UUID,
	amount decimal.Decimal,
	method domain.PaymentMethod,
) (*domain.PaymentOrder, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("deposit amount must be positive")
	}

	order := &domain.PaymentOrder{
		ID:     uuid.New(),
		UserID: userID,
		Amount: amount,
		Method: method,
		Status: domain.PaymentOrderStatusPending,
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := s.Repos.PaymentOrders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	return order, nil
}

// SettleDeposit verifies the external payment behind a payment order and
// credits the wallet once.
//
// Logic:
//  1. Resolve the payment order; only its owner may settle it
//  2. Verify the external payment with the gateway (outside the
//     transaction, like the price fetch in order settlement)
//  3. In one unit of work: re-check the order is still PENDING (settling a
//     resolved order is a no-op credit-wise), mark it, credit the wallet,
//     and append the deposit ledger entry
//
// Returns the wallet after settlement.
func (s *DepositService) SettleDeposit(
	ctx context.Context,
	userID uuid.UUID,
	paymentOrderID uuid.UUID,
	externalPaymentID string,
) (*domain.Wallet, error) {
	order, err := s.Repos.PaymentOrders.GetByID(ctx, paymentOrderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	captured, err := s.Gateway.VerifyPayment(ctx, order, externalPaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify payment: %w", err)
	}

	key := locker.UserWalletKey(userID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	var settledWallet *domain.Wallet
	err = s.UoW.Do(ctx, func(r *domain.Repositories) error {
		current, err := r.PaymentOrders.GetByID(ctx, paymentOrderID)
		if err != nil {
			return err
		}

		w, err := s.Wallet.GetOrCreate(ctx, r, userID)
		if err != nil {
			return err
		}
		settledWallet = w

		// A non-PENDING order has already been resolved; replaying the
		// settle call must not credit the wallet again.
		if current.Status != domain.PaymentOrderStatusPending {
			return nil
		}

		if !captured {
			current.Status = domain.PaymentOrderStatusFailed
			return r.PaymentOrders.Update(ctx, current)
		}

		current.Status = domain.PaymentOrderStatusSuccess
		if err := r.PaymentOrders.Update(ctx, current); err != nil {
			return fmt.Errorf("failed to update payment order: %w", err)
		}

		if err := s.Wallet.AdjustBalance(ctx, r, w, current.Amount); err != nil {
			return err
		}

		purpose := fmt.Sprintf("Deposit via %s", current.Method)
		_, err = s.Ledger.Record(ctx, r, w, domain.LedgerEntryDeposit, nil, purpose, current.Amount)
		return err
	})
	if err != nil {
		return nil, err
	}

	return settledWallet, nil
}
