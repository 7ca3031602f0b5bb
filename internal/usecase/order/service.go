package order

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
	"github.com/coinharbor/exchange-backend/internal/usecase/asset"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
	"github.com/coinharbor/exchange-backend/internal/usecase/wallet"
)

// DefaultDustThreshold is the quote-currency value below which a residual
// position is removed after a sell rather than retained at near-zero.
var DefaultDustThreshold = decimal.NewFromInt(1)

// OrderService is the settlement engine: it turns a trade intent into
// wallet, position, order, and ledger changes that commit together or not
// at all. The instrument price is fetched once before settlement and fixed
// on the order; it is never re-queried mid-transaction.
type OrderService struct {
	UoW    domain.UnitOfWork
	Repos  *domain.Repositories
	Wallet *wallet.WalletService
	Asset  *asset.AssetService
	Ledger *ledger.LedgerService
	Prices domain.PriceSource
	Locks  *locker.KeyedMutex
	Logger *zap.Logger

	// DustThreshold is the cleanup cutoff in quote-currency terms. A
	// negative threshold disables cleanup, retaining emptied positions at
	// quantity zero.
	DustThreshold decimal.Decimal
}

// NewOrderService creates a new OrderService instance
func NewOrderService(
	uow domain.UnitOfWork,
	repos *domain.Repositories,
	walletService *wallet.WalletService,
	assetService *asset.AssetService,
	ledgerService *ledger.LedgerService,
	prices domain.PriceSource,
	locks *locker.KeyedMutex,
	logger *zap.Logger,
) *OrderService {
	return &OrderService{
		UoW:           uow,
		Repos:         repos,
		Wallet:        walletService,
		Asset:         assetService,
		Ledger:        ledgerService,
		Prices:        prices,
		Locks:         locks,
		Logger:        logger,
		DustThreshold: DefaultDustThreshold,
	}
}

// Submit executes a buy or sell for the user as one settlement.
//
// Logic:
//  1. Validate quantity > 0 (ErrInvalidQuantity)
//  2. Fetch the instrument's current price (ErrInstrumentUnavailable)
//  3. Under the user's wallet lock, run one unit of work that creates the
//     order PENDING, settles the payment, marks it SUCCESS, applies the
//     position change, and appends the order-payment ledger entry
//
// Any failure aborts the unit of work: no order row, balance change,
// position change, or ledger entry survives a failed settlement.
func (s *OrderService) Submit(
	ctx context.Context,
	userID uuid.UUID,
	instrumentID string,
	quantity decimal.Decimal,
	side domain.OrderSide,
) (*domain.Order, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	if side != domain.OrderSideBuy && side != domain.OrderSideSell {
		return nil, fmt.Errorf("invalid order side %q", side)
	}

	unitPrice, err := s.Prices.CurrentPrice(ctx, instrumentID)
	if err != nil {
		return nil, err
	}

	key := locker.UserWalletKey(userID)
	s.Locks.Lock(key)
	defer s.Locks.Unlock(key)

	var settled *domain.Order
	err = s.UoW.Do(ctx, func(r *domain.Repositories) error {
		var err error
		if side == domain.OrderSideBuy {
			settled, err = s.buy(ctx, r, userID, instrumentID, quantity, unitPrice)
		} else {
			settled, err = s.sell(ctx, r, userID, instrumentID, quantity, unitPrice)
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Logger.Info("order settled",
		zap.String("order_id", settled.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("instrument", instrumentID),
		zap.String("side", string(side)),
		zap.String("quantity", quantity.String()),
		zap.String("price", settled.Price.String()),
	)

	return settled, nil
}

// createOrder builds and persists the order and its item in PENDING state.
// The order price is fixed here: quantity x execution price.
func (s *OrderService) createOrder(
	ctx context.Context,
	r *domain.Repositories,
	userID uuid.UUID,
	side domain.OrderSide,
	instrumentID string,
	quantity, buyPrice, sellPrice, unitPrice decimal.Decimal,
) (*domain.Order, error) {
	orderID := uuid.New()
	order := &domain.Order{
		ID:        orderID,
		UserID:    userID,
		Side:      side,
		Price:     unitPrice.Mul(quantity),
		Timestamp: time.Now(),
		Status:    domain.OrderStatusPending,
		Item: domain.OrderItem{
			ID:           uuid.New(),
			OrderID:      orderID,
			InstrumentID: instrumentID,
			Quantity:     quantity,
			BuyPrice:     buyPrice,
			SellPrice:    sellPrice,
		},
	}

	if err := order.Validate(); err != nil {
		return nil, err
	}

	if err := r.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

func (s *OrderService) buy(
	ctx context.Context,
	r *domain.Repositories,
	userID uuid.UUID,
	instrumentID string,
	quantity, unitPrice decimal.Decimal,
) (*domain.Order, error) {
	order, err := s.createOrder(ctx, r, userID, domain.OrderSideBuy, instrumentID, quantity, unitPrice, decimal.Zero, unitPrice)
	if err != nil {
		return nil, err
	}

	w, err := s.Wallet.SettleOrderPayment(ctx, r, order, userID)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusSuccess
	if err := r.Orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	// Existing position: increase quantity, keep the cost basis.
	// No position: open one at the execution price.
	existing, err := s.Asset.Find(ctx, r, userID, instrumentID)
	switch {
	case err == nil:
		if _, err := s.Asset.Update(ctx, r, existing.ID, quantity); err != nil {
			return nil, err
		}
	case errors.Is(err, domain.ErrAssetNotFound):
		if _, err := s.Asset.Create(ctx, r, userID, instrumentID, quantity, unitPrice); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	purpose := fmt.Sprintf("Buy %s %s", quantity.String(), instrumentID)
	if _, err := s.Ledger.Record(ctx, r, w, domain.LedgerEntryOrderPayment, nil, purpose, order.Price.Neg()); err != nil {
		return nil, err
	}

	return order, nil
}

func (s *OrderService) sell(
	ctx context.Context,
	r *domain.Repositories,
	userID uuid.UUID,
	instrumentID string,
	quantity, unitPrice decimal.Decimal,
) (*domain.Order, error) {
	position, err := s.Asset.Find(ctx, r, userID, instrumentID)
	if err != nil {
		return nil, err
	}

	if position.Quantity.LessThan(quantity) {
		return nil, domain.ErrInsufficientHoldings
	}

	order, err := s.createOrder(ctx, r, userID, domain.OrderSideSell, instrumentID, quantity, position.BuyPrice, unitPrice, unitPrice)
	if err != nil {
		return nil, err
	}

	w, err := s.Wallet.SettleOrderPayment(ctx, r, order, userID)
	if err != nil {
		return nil, err
	}

	order.Status = domain.OrderStatusSuccess
	if err := r.Orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	remaining, err := s.Asset.Update(ctx, r, position.ID, quantity.Neg())
	if err != nil {
		return nil, err
	}

	// Dust cleanup: deletion is driven by the remaining market value, not by
	// zero quantity alone.
	if remaining.MarketValue(unitPrice).LessThanOrEqual(s.DustThreshold) {
		if err := s.Asset.Delete(ctx, r, remaining.ID); err != nil {
			return nil, err
		}
	}

	purpose := fmt.Sprintf("Sell %s %s", quantity.String(), instrumentID)
	if _, err := s.Ledger.Record(ctx, r, w, domain.LedgerEntryOrderPayment, nil, purpose, order.Price); err != nil {
		return nil, err
	}

	return order, nil
}

// GetOrder returns an order by id, restricted to the owning user.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.Repos.Orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.UserID != userID {
		return nil, domain.ErrUnauthorized
	}

	return order, nil
}

// ListOrders returns the user's orders narrowed by filter, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID uuid.UUID, filter domain.OrderFilter) ([]*domain.Order, error) {
	return s.Repos.Orders.ListByUser(ctx, userID, filter)
}
