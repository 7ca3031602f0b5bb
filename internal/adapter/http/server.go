// Package http is the thin request layer over the settlement core: route
// handlers parse and validate input, call one usecase service, and map
// domain errors to status codes. No business logic lives here.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/coinharbor/exchange-backend/internal/domain"
	"github.com/coinharbor/exchange-backend/internal/usecase/asset"
	"github.com/coinharbor/exchange-backend/internal/usecase/deposit"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
	"github.com/coinharbor/exchange-backend/internal/usecase/order"
	"github.com/coinharbor/exchange-backend/internal/usecase/wallet"
	"github.com/coinharbor/exchange-backend/internal/usecase/withdrawal"
)

// Server wires the usecase services to HTTP routes
type Server struct {
	Wallet     *wallet.WalletService
	Asset      *asset.AssetService
	Order      *order.OrderService
	Ledger     *ledger.LedgerService
	Withdrawal *withdrawal.WithdrawalService
	Deposit    *deposit.DepositService
}

// NewServer creates a new HTTP server instance
func NewServer(
	walletService *wallet.WalletService,
	assetService *asset.AssetService,
	orderService *order.OrderService,
	ledgerService *ledger.LedgerService,
	withdrawalService *withdrawal.WithdrawalService,
	depositService *deposit.DepositService,
) *Server {
	return &Server{
		Wallet:     walletService,
		Asset:      assetService,
		Order:      orderService,
		Ledger:     ledgerService,
		Withdrawal: withdrawalService,
		Deposit:    depositService,
	}
}

// Router builds the gin engine with all routes registered
func (s *Server) Router(resolver domain.IdentityResolver, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(logger))

	api := r.Group("/api", IdentityMiddleware(resolver))
	{
		api.POST("/orders", s.submitOrder)
		api.GET("/orders/:id", s.getOrder)
		api.GET("/orders", s.listOrders)

		api.GET("/assets", s.listAssets)

		api.GET("/wallet", s.getWallet)
		api.PUT("/wallet/:walletId/transfer", s.transfer)
		api.GET("/wallet/transactions", s.listTransactions)
		api.PUT("/wallet/deposit", s.settleDeposit)

		api.POST("/payment-orders", s.createPaymentOrder)

		api.POST("/withdrawal", s.requestWithdrawal)
		api.GET("/withdrawal", s.listWithdrawals)

		api.PATCH("/admin/withdrawal/:id/proceed/:accept", s.decideWithdrawal)
		api.GET("/admin/withdrawal", s.listAllWithdrawals)
	}

	return r
}

// writeError maps a domain error to an HTTP status code.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrWalletNotFound),
		errors.Is(err, domain.ErrAssetNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrWithdrawalNotFound),
		errors.Is(err, domain.ErrPaymentOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrInsufficientHoldings):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInstrumentUnavailable):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}

func parseAmount(c *gin.Context, raw string) (decimal.Decimal, bool) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount format"})
		return decimal.Zero, false
	}
	return amount, true
}

// POST /api/orders
func (s *Server) submitOrder(c *gin.Context) {
	var req struct {
		InstrumentID string `json:"instrument_id" binding:"required"`
		Quantity     string `json:"quantity" binding:"required"`
		Side         string `json:"side" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quantity, ok := parseAmount(c, req.Quantity)
	if !ok {
		return
	}

	settled, err := s.Order.Submit(c.Request.Context(), currentUser(c), req.InstrumentID, quantity, domain.OrderSide(req.Side))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, settled)
}

// GET /api/orders/:id
func (s *Server) getOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return
	}

	found, err := s.Order.GetOrder(c.Request.Context(), currentUser(c), orderID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// GET /api/orders?side=BUY&instrument=BTC
func (s *Server) listOrders(c *gin.Context) {
	filter := domain.OrderFilter{
		Side:         domain.OrderSide(c.Query("side")),
		InstrumentID: c.Query("instrument"),
	}

	orders, err := s.Order.ListOrders(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, orders)
}

// GET /api/assets
func (s *Server) listAssets(c *gin.Context) {
	assets, err := s.Asset.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, assets)
}

// GET /api/wallet
func (s *Server) getWallet(c *gin.Context) {
	w, err := s.Wallet.GetOrCreateWallet(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// PUT /api/wallet/:walletId/transfer
func (s *Server) transfer(c *gin.Context) {
	receiverID, err := strconv.ParseInt(c.Param("walletId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid wallet id"})
		return
	}

	var req struct {
		Amount  string `json:"amount" binding:"required"`
		Purpose string `json:"purpose"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	sender, err := s.Wallet.Transfer(c.Request.Context(), currentUser(c), receiverID, amount, req.Purpose)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sender)
}

// GET /api/wallet/transactions
func (s *Server) listTransactions(c *gin.Context) {
	w, err := s.Wallet.GetOrCreateWallet(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	entries, err := s.Ledger.ListForWallet(c.Request.Context(), w.ID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// POST /api/payment-orders
func (s *Server) createPaymentOrder(c *gin.Context) {
	var req struct {
		Amount string `json:"amount" binding:"required"`
		Method string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	created, err := s.Deposit.CreatePaymentOrder(c.Request.Context(), currentUser(c), amount, domain.PaymentMethod(req.Method))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

// PUT /api/wallet/deposit?order_id=...&payment_id=...
func (s *Server) settleDeposit(c *gin.Context) {
	paymentOrderID, err := uuid.Parse(c.Query("order_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order_id"})
		return
	}

	w, err := s.Deposit.SettleDeposit(c.Request.Context(), currentUser(c), paymentOrderID, c.Query("payment_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, w)
}

// POST /api/withdrawal
func (s *Server) requestWithdrawal(c *gin.Context) {
	var req struct {
		Amount string `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	created, err := s.Withdrawal.Request(c.Request.Context(), currentUser(c), amount)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, created)
}

// GET /api/withdrawal
func (s *Server) listWithdrawals(c *gin.Context) {
	withdrawals, err := s.Withdrawal.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}

// PATCH /api/admin/withdrawal/:id/proceed/:accept
func (s *Server) decideWithdrawal(c *gin.Context) {
	withdrawalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid withdrawal id"})
		return
	}

	accept, err := strconv.ParseBool(c.Param("accept"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "accept must be true or false"})
		return
	}

	resolved, err := s.Withdrawal.Decide(c.Request.Context(), withdrawalID, accept)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resolved)
}

// GET /api/admin/withdrawal
func (s *Server) listAllWithdrawals(c *gin.Context) {
	withdrawals, err := s.Withdrawal.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, withdrawals)
}
