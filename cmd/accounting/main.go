package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/atlas-erp/accounting/internal/accounts"
	"github.com/atlas-erp/accounting/internal/app"
	"github.com/atlas-erp/accounting/internal/authz"
	"github.com/atlas-erp/accounting/internal/budgets"
	"github.com/atlas-erp/accounting/internal/centers"
	"github.com/atlas-erp/accounting/internal/companies"
	"github.com/atlas-erp/accounting/internal/events"
	"github.com/atlas-erp/accounting/internal/fiscal"
	"github.com/atlas-erp/accounting/internal/jobs"
	"github.com/atlas-erp/accounting/internal/ledger"
	"github.com/atlas-erp/accounting/internal/observability"
	"github.com/atlas-erp/accounting/internal/platform/db"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()
	metrics := observability.NewMetrics()
	bus := events.NewBus(asynqClient).WithMetrics(metrics)

	authzService := authz.NewService(authz.NewRepository(pool))
	var authorizer authz.Authorizer = authzService
	if cfg.AuthzMode == "allow-all" {
		logger.Warn("authorization disabled, every authenticated actor is allowed")
		authorizer = authz.AllowAll{}
	}
	guard := authz.Middleware{Service: authzService, Authorizer: authorizer, Logger: logger}

	ledgerService := ledger.NewService(ledger.NewRepository(pool), bus, logger)
	fiscalService := fiscal.NewService(fiscal.NewRepository(pool), bus, logger)
	accountsService := accounts.NewService(accounts.NewRepository(pool), bus, logger)
	companiesService := companies.NewService(companies.NewRepository(pool), bus, logger)
	centersService := centers.NewService(centers.NewRepository(pool), bus, logger)
	budgetsService := budgets.NewService(budgets.NewRepository(pool), bus, logger)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		Guard:            guard,
		LedgerHandler:    ledger.NewHandler(logger, ledgerService).WithMetrics(metrics),
		FiscalHandler:    fiscal.NewHandler(logger, fiscalService),
		AccountsHandler:  accounts.NewHandler(logger, accountsService),
		CompaniesHandler: companies.NewHandler(logger, companiesService),
		CentersHandler:   centers.NewHandler(logger, centersService),
		BudgetsHandler:   budgets.NewHandler(logger, budgetsService),
		JobsHandler:      jobs.NewHandler(inspector, logger),
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
