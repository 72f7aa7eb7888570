package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fintrack/internal/api/handlers/groupbudgets"
	"fintrack/internal/api/handlers/transactions"
	"fintrack/internal/api/handlers/wallet"
	mw "fintrack/internal/api/middlewares"
	"fintrack/internal/api/routers"
	"fintrack/internal/config"
	"fintrack/internal/repositories/sqlconnect"
	"fintrack/internal/repositories/store"
	"fintrack/internal/services/ewallet"
	"fintrack/internal/services/groupbudget"
	"fintrack/internal/services/ledger"
	"fintrack/pkg/cron"
	"fintrack/pkg/telemetry"
	"fintrack/pkg/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Logger.Fatal("Invalid configuration: ", err)
	}

	utils.InitLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(ctx, "fintrack", cfg.OtelEndpoint)
	if err != nil {
		utils.Logger.Fatal("Tracing setup failed: ", err)
	}

	db, dialect, err := sqlconnect.ConnectDb(ctx, cfg)
	if err != nil {
		utils.Logger.Fatal("DB connection failed: ", err)
	}
	defer db.Close()

	sqlStore := store.NewSQLStore(db, dialect)

	budgets := groupbudget.New(groupbudget.Deps{
		Store:      sqlStore,
		Ledger:     sqlStore,
		Directory:  sqlStore,
		Categories: sqlStore,
	}, groupbudget.Options{
		LedgerTimeout:    cfg.LedgerTimeout,
		DirectoryTimeout: cfg.DirectoryTimeout,
	})
	txLedger := ledger.New(sqlStore, sqlStore, ledger.Options{})
	wallets := ewallet.New(ewallet.Options{FingerprintKey: []byte(cfg.EWalletFingerprintKey)})

	scheduler, err := cron.StartCronJob(cfg.EWalletSyncSchedule, wallets)
	if err != nil {
		utils.Logger.Fatal("Cron setup failed: ", err)
	}

	router := routers.MainRouter(routers.Handlers{
		GroupBudgets: groupbudgets.NewHandler(budgets),
		Transactions: transactions.NewHandler(txLedger),
		EWallet:      wallet.NewHandler(wallets),
	})
	jwtMiddleware := mw.MiddlewaresExcludePaths(mw.JWTMiddleware(cfg.JWTSecret), "/health")

	secureMux := jwtMiddleware(mw.SecurityHeaders(mw.RequestTimeout(cfg.RequestTimeout)(router)))

	server := &http.Server{
		Addr:              ":" + strings.TrimPrefix(cfg.ServerPort, ":"),
		Handler:           secureMux,
		ReadHeaderTimeout: 5 * time.Second,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	serveErr := make(chan error, 1)
	go func() {
		utils.Logger.WithField("tls", cfg.TLSEnabled()).Info("Server is running on port ", server.Addr)
		if cfg.TLSEnabled() {
			serveErr <- server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
			return
		}
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Error("Error starting the server: ", err)
		}
	case <-ctx.Done():
		utils.Logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	select {
	case <-scheduler.Stop().Done():
	case <-shutdownCtx.Done():
		utils.Logger.Warn("E-wallet sync still running at shutdown")
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("HTTP server shutdown failed")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("Tracing shutdown failed")
	}
}
