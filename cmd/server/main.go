package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpadapter "github.com/coinharbor/exchange-backend/internal/adapter/http"
	"github.com/coinharbor/exchange-backend/internal/adapter/notifier"
	"github.com/coinharbor/exchange-backend/internal/adapter/paymentgw"
	"github.com/coinharbor/exchange-backend/internal/adapter/pricefeed"
	"github.com/coinharbor/exchange-backend/internal/adapter/repository/postgres"
	"github.com/coinharbor/exchange-backend/internal/config"
	"github.com/coinharbor/exchange-backend/internal/locker"
	"github.com/coinharbor/exchange-backend/internal/usecase/asset"
	"github.com/coinharbor/exchange-backend/internal/usecase/deposit"
	"github.com/coinharbor/exchange-backend/internal/usecase/ledger"
	"github.com/coinharbor/exchange-backend/internal/usecase/order"
	"github.com/coinharbor/exchange-backend/internal/usecase/wallet"
	"github.com/coinharbor/exchange-backend/internal/usecase/withdrawal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger := newLogger(cfg.Production)
	defer logger.Sync()

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. Database
	db, err := postgres.NewDB(cfg.DB.DSN())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	repos := postgres.NewRepositories(db)
	uow := postgres.NewUnitOfWork(db)
	locks := locker.NewKeyedMutex()

	// 2. Collaborators
	prices := pricefeed.NewClient(cfg.PriceFeed.BaseURL, cfg.PriceFeed.Timeout)
	gateway := paymentgw.NewClient(cfg.Payments.BaseURL, cfg.Payments.Timeout)
	notify := notifier.NewLogNotifier(logger)

	resolver, err := buildResolver(cfg.APITokens)
	if err != nil {
		logger.Fatal("invalid api_tokens config", zap.Error(err))
	}

	// 3. Services
	ledgerService := ledger.NewLedgerService(repos)
	walletService := wallet.NewWalletService(uow, repos, ledgerService, locks)
	if cfg.WalletIDAttempts > 0 {
		walletService.IDAttempts = cfg.WalletIDAttempts
	}
	assetService := asset.NewAssetService(repos)
	orderService := order.NewOrderService(uow, repos, walletService, assetService, ledgerService, prices, locks, logger)
	orderService.DustThreshold = cfg.DustThreshold
	withdrawalService := withdrawal.NewWithdrawalService(uow, repos, walletService, ledgerService, locks, notify, logger)
	depositService := deposit.NewDepositService(uow, repos, walletService, ledgerService, gateway, locks)

	// 4. HTTP server
	server := httpadapter.NewServer(
		walletService,
		assetService,
		orderService,
		ledgerService,
		withdrawalService,
		depositService,
	)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Router(resolver, logger),
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown did not complete cleanly", zap.Error(err))
	}

	logger.Info("server stopped")
}

func newLogger(production bool) *zap.Logger {
	var logger *zap.Logger
	var err error
	if production {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return logger
}

// buildResolver turns the token=uuid pairs from config into the static
// resolver used until a real identity provider is integrated.
func buildResolver(tokens map[string]string) (*httpadapter.StaticTokenResolver, error) {
	resolved := make(map[string]uuid.UUID, len(tokens))
	for token, raw := range tokens {
		userID, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		resolved[token] = userID
	}
	return &httpadapter.StaticTokenResolver{Tokens: resolved}, nil
}
