package deposit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinharbor/exchange-backend/internal/adapter/paymentgw"
	"github.com/coinharbor/exchange-backend/internal/adapter/repository/memory"
	"github.com/coinharbor/exchange-backend/internal/domain"
	"github.com/coinharbor/exchange-backend/internal/locker"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
	"github.com/coinharbor/exchange-backend/internal/usecase/wallet"
)

type fixture struct {
	svc     *DepositService
	store   *memory.Store
	gateway *paymentgw.Static
}

func newFixture() *fixture {
	store := memory.NewStore()
	repos := store.Repositories()
	locks := locker.NewKeyedMutex()

	ledgerService := ledger.NewLedgerService(repos)
	walletService := wallet.NewWalletService(store, repos, ledgerService, locks)
	gateway := &paymentgw.Static{Captured: map[string]bool{}}

	svc := NewDepositService(store, repos, walletService, ledgerService, gateway, locks)

	return &fixture{svc: svc, store: store, gateway: gateway}
}

func TestCreatePaymentOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	created, err := f.svc.CreatePaymentOrder(ctx, userID, decimal.NewFromInt(100), domain.PaymentMethodStripe)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOrderStatusPending, created.Status)
	assert.Equal(t, domain.PaymentMethodStripe, created.Method)
	assert.True(t, created.Amount.Equal(decimal.NewFromInt(100)))
}

func TestCreatePaymentOrder_NonPositiveAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.CreatePaymentOrder(ctx, uuid.New(), decimal.Zero, domain.PaymentMethodStripe)
	assert.Error(t, err)

	_, err = f.svc.CreatePaymentOrder(ctx, uuid.New(), decimal.NewFromInt(-10), domain.PaymentMethodPaypal)
	assert.Error(t, err)
}

func TestCreatePaymentOrder_UnknownMethod(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.CreatePaymentOrder(ctx, uuid.New(), decimal.NewFromInt(10), domain.PaymentMethod("WIRE"))

	assert.Error(t, err)
}

func TestSettleDeposit_CreditsWalletOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	created, err := f.svc.CreatePaymentOrder(ctx, userID, decimal.NewFromInt(100), domain.PaymentMethodStripe)
	require.NoError(t, err)

	f.gateway.Captured["pay_123"] = true

	w, err := f.svc.SettleDeposit(ctx, userID, created.ID, "pay_123")

	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))

	repos := f.store.Repositories()

	settled, err := repos.PaymentOrders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOrderStatusSuccess, settled.Status)

	entries, err := repos.Ledger.ListByWallet(ctx, w.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LedgerEntryDeposit, entries[0].Type)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(100)))
}

func TestSettleDeposit_ReplayDoesNotCreditTwice(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	created, err := f.svc.CreatePaymentOrder(ctx, userID, decimal.NewFromInt(100), domain.PaymentMethodStripe)
	require.NoError(t, err)

	f.gateway.Captured["pay_123"] = true

	_, err = f.svc.SettleDeposit(ctx, userID, created.ID, "pay_123")
	require.NoError(t, err)

	w, err := f.svc.SettleDeposit(ctx, userID, created.ID, "pay_123")

	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)))

	entries, err := f.store.Repositories().Ledger.ListByWallet(ctx, w.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSettleDeposit_UncapturedPaymentFailsOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	created, err := f.svc.CreatePaymentOrder(ctx, userID, decimal.NewFromInt(100), domain.PaymentMethodPaypal)
	require.NoError(t, err)

	w, err := f.svc.SettleDeposit(ctx, userID, created.ID, "pay_unknown")

	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())

	failed, err := f.store.Repositories().PaymentOrders.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentOrderStatusFailed, failed.Status)
}

func TestSettleDeposit_OnlyOwnerMaySettle(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	userID := uuid.New()

	created, err := f.svc.CreatePaymentOrder(ctx, userID, decimal.NewFromInt(100), domain.PaymentMethodStripe)
	require.NoError(t, err)

	_, err = f.svc.SettleDeposit(ctx, uuid.New(), created.ID, "pay_123")

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestSettleDeposit_UnknownOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	_, err := f.svc.SettleDeposit(ctx, uuid.New(), uuid.New(), "pay_123")

	assert.ErrorIs(t, err, domain.ErrPaymentOrderNotFound)
}
