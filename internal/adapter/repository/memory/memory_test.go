package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

func TestDo_CommitsOnSuccess(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()

	err := store.Do(ctx, func(r *domain.Repositories) error {
		return r.Wallets.Create(ctx, &domain.Wallet{ID: 12345, UserID: userID, Balance: decimal.NewFromInt(10)})
	})
	require.NoError(t, err)

	w, err := store.Repositories().Wallets.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(10)))
}

func TestDo_RollsBackAllWritesOnError(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()

	require.NoError(t, store.Repositories().Wallets.Create(ctx, &domain.Wallet{
		ID: 12345, UserID: userID, Balance: decimal.NewFromInt(100),
	}))

	boom := errors.New("boom")
	err := store.Do(ctx, func(r *domain.Repositories) error {
		w, err := r.Wallets.GetByID(ctx, 12345)
		if err != nil {
			return err
		}
		w.Balance = decimal.Zero
		if err := r.Wallets.UpdateBalance(ctx, w); err != nil {
			return err
		}
		if err := r.Ledger.Create(ctx, &domain.LedgerEntry{
			ID:       uuid.New(),
			WalletID: 12345,
			Type:     domain.LedgerEntryDeposit,
			Amount:   decimal.NewFromInt(-100),
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	repos := store.Repositories()

	w, err := repos.Wallets.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(decimal.NewFromInt(100)), "balance write must not survive the failed unit of work")

	entries, err := repos.Ledger.ListByWallet(ctx, 12345)
	require.NoError(t, err)
	assert.Empty(t, entries, "ledger write must not survive the failed unit of work")
}

func TestDo_WritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	err := store.Do(ctx, func(r *domain.Repositories) error {
		if err := r.Wallets.Create(ctx, &domain.Wallet{ID: 12345, UserID: uuid.New()}); err != nil {
			return err
		}
		// The transaction sees its own write...
		_, err := r.Wallets.GetByID(ctx, 12345)
		return err
	})
	require.NoError(t, err)

	// ...and so does everyone after the commit.
	_, err = store.Repositories().Wallets.GetByID(ctx, 12345)
	assert.NoError(t, err)
}

func TestDo_CancelledContext(t *testing.T) {
	store := NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := store.Do(ctx, func(r *domain.Repositories) error {
		called = true
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestRepositories_ReturnCopies(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	require.NoError(t, store.Repositories().Wallets.Create(ctx, &domain.Wallet{
		ID: 12345, UserID: uuid.New(), Balance: decimal.NewFromInt(100),
	}))

	w, err := store.Repositories().Wallets.GetByID(ctx, 12345)
	require.NoError(t, err)

	// Mutating the returned value must not touch stored state.
	w.Balance = decimal.Zero

	fresh, err := store.Repositories().Wallets.GetByID(ctx, 12345)
	require.NoError(t, err)
	assert.True(t, fresh.Balance.Equal(decimal.NewFromInt(100)))
}

func TestOrderListByUser_NewestFirstAndFiltered(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	userID := uuid.New()
	repos := store.Repositories()

	first := &domain.Order{
		ID: uuid.New(), UserID: userID, Side: domain.OrderSideBuy,
		Status: domain.OrderStatusSuccess,
		Item:   domain.OrderItem{InstrumentID: "BTC", Quantity: decimal.NewFromInt(1)},
	}
	second := &domain.Order{
		ID: uuid.New(), UserID: userID, Side: domain.OrderSideSell,
		Status: domain.OrderStatusSuccess,
		Item:   domain.OrderItem{InstrumentID: "ETH", Quantity: decimal.NewFromInt(1)},
	}
	require.NoError(t, repos.Orders.Create(ctx, first))
	require.NoError(t, repos.Orders.Create(ctx, second))

	all, err := repos.Orders.ListByUser(ctx, userID, domain.OrderFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest order should come first")

	eth, err := repos.Orders.ListByUser(ctx, userID, domain.OrderFilter{InstrumentID: "ETH"})
	require.NoError(t, err)
	require.Len(t, eth, 1)
	assert.Equal(t, second.ID, eth[0].ID)
}
