package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coinharbor/exchange-backend/internal/adapter/paymentgw"
	"github.com/coinharbor/exchange-backend/internal/adapter/pricefeed"
	"github.com/coinharbor/exchange-backend/internal/adapter/repository/memory"
	"github.com/coinharbor/exchange-backend/internal/domain"
	"github.com/coinharbor/exchange-backend/internal/locker"
	"github.com/coinharbor/exchange-backend/internal/usecase/asset"
	"github.com/coinharbor/exchange-backend/internal/usecase/deposit"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
	"github.com/coinharbor/exchange-backend/internal/usecase/order"
	"github.com/coinharbor/exchange-backend/internal/usecase/wallet"
	"github.com/coinharbor/exchange-backend/internal/usecase/withdrawal"
)

type noopNotifier struct{}

func (noopNotifier) Notify(ctx context.Context, destination, payload string) {}

type testEnv struct {
	router *gin.Engine
	store  *memory.Store
	wallet *wallet.WalletService
	userID uuid.UUID
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	repos := store.Repositories()
	locks := locker.NewKeyedMutex()
	logger := zap.NewNop()

	ledgerService := ledger.NewLedgerService(repos)
	walletService := wallet.NewWalletService(store, repos, ledgerService, locks)
	assetService := asset.NewAssetService(repos)
	prices := &pricefeed.Static{Prices: map[string]decimal.Decimal{
		"BTC": decimal.NewFromInt(30),
	}}
	orderService := order.NewOrderService(store, repos, walletService, assetService, ledgerService, prices, locks, logger)
	withdrawalService := withdrawal.NewWithdrawalService(store, repos, walletService, ledgerService, locks, noopNotifier{}, logger)
	gateway := &paymentgw.Static{Captured: map[string]bool{"pay_ok": true}}
	depositService := deposit.NewDepositService(store, repos, walletService, ledgerService, gateway, locks)

	server := NewServer(walletService, assetService, orderService, ledgerService, withdrawalService, depositService)

	userID := uuid.New()
	token := "test-token"
	resolver := &StaticTokenResolver{Tokens: map[string]uuid.UUID{token: userID}}

	return &testEnv{
		router: server.Router(resolver, logger),
		store:  store,
		wallet: walletService,
		userID: userID,
		token:  token,
	}
}

func (e *testEnv) request(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) fundUser(t *testing.T, amount decimal.Decimal) *domain.Wallet {
	t.Helper()
	ctx := context.Background()

	var w *domain.Wallet
	err := e.store.Do(ctx, func(r *domain.Repositories) error {
		wallet, err := e.wallet.GetOrCreate(ctx, r, e.userID)
		if err != nil {
			return err
		}
		if err := e.wallet.AdjustBalance(ctx, r, wallet, amount); err != nil {
			return err
		}
		w = wallet
		return nil
	})
	require.NoError(t, err)
	return w
}

func TestRouter_RejectsMissingCredential(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_RejectsUnknownToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/wallet", nil)
	req.Header.Set("Authorization", "Bearer wrong-token")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetWallet_CreatesLazily(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodGet, "/api/wallet", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		ID      int64
		Balance decimal.Decimal
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.GreaterOrEqual(t, body.ID, domain.WalletIDMin)
	assert.LessOrEqual(t, body.ID, domain.WalletIDMax)
	assert.True(t, body.Balance.IsZero())
}

func TestSubmitOrder_BuySettles(t *testing.T) {
	env := newTestEnv(t)
	w := env.fundUser(t, decimal.NewFromInt(100))

	rec := env.request(t, http.MethodPost, "/api/orders",
		`{"instrument_id":"BTC","quantity":"2","side":"BUY"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	after, err := env.store.Repositories().Wallets.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(40)))
}

func TestSubmitOrder_InsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	env.fundUser(t, decimal.NewFromInt(10))

	rec := env.request(t, http.MethodPost, "/api/orders",
		`{"instrument_id":"BTC","quantity":"2","side":"BUY"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitOrder_UnknownInstrument(t *testing.T) {
	env := newTestEnv(t)
	env.fundUser(t, decimal.NewFromInt(100))

	rec := env.request(t, http.MethodPost, "/api/orders",
		`{"instrument_id":"DOGE","quantity":"1","side":"BUY"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSubmitOrder_MalformedQuantity(t *testing.T) {
	env := newTestEnv(t)

	rec := env.request(t, http.MethodPost, "/api/orders",
		`{"instrument_id":"BTC","quantity":"two","side":"BUY"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTransfer_UnknownReceiverWallet(t *testing.T) {
	env := newTestEnv(t)
	env.wallet.IDSource = func() int64 { return 44444 }
	env.fundUser(t, decimal.NewFromInt(100))

	rec := env.request(t, http.MethodPut, "/api/wallet/99998/transfer",
		`{"amount":"10"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWithdrawalFlow(t *testing.T) {
	env := newTestEnv(t)
	w := env.fundUser(t, decimal.NewFromInt(100))

	rec := env.request(t, http.MethodPost, "/api/withdrawal", `{"amount":"40"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		ID uuid.UUID
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.request(t, http.MethodPatch, "/api/admin/withdrawal/"+created.ID.String()+"/proceed/false", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	after, err := env.store.Repositories().Wallets.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(100)))
}

func TestDepositFlow(t *testing.T) {
	env := newTestEnv(t)
	w := env.fundUser(t, decimal.Zero)

	rec := env.request(t, http.MethodPost, "/api/payment-orders",
		`{"amount":"250","method":"STRIPE"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var created struct {
		ID uuid.UUID
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = env.request(t, http.MethodPut,
		"/api/wallet/deposit?order_id="+created.ID.String()+"&payment_id=pay_ok", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	after, err := env.store.Repositories().Wallets.GetByID(context.Background(), w.ID)
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(decimal.NewFromInt(250)))
}

func TestListTransactions(t *testing.T) {
	env := newTestEnv(t)
	env.fundUser(t, decimal.NewFromInt(100))

	rec := env.request(t, http.MethodPost, "/api/orders",
		`{"instrument_id":"BTC","quantity":"1","side":"BUY"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.request(t, http.MethodGet, "/api/wallet/transactions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []struct {
		Type   domain.LedgerEntryType
		Amount decimal.Decimal
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, domain.LedgerEntryOrderPayment, entries[0].Type)
	assert.True(t, entries[0].Amount.Equal(decimal.NewFromInt(-30)))
}
