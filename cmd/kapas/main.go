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

	"github.com/kapas-trade/kapas-trade/internal/allocation"
	"github.com/kapas-trade/kapas-trade/internal/app"
	"github.com/kapas-trade/kapas-trade/internal/contracts"
	"github.com/kapas-trade/kapas-trade/internal/dospec"
	"github.com/kapas-trade/kapas-trade/internal/inventory"
	"github.com/kapas-trade/kapas-trade/internal/notify"
	"github.com/kapas-trade/kapas-trade/internal/observability"
	"github.com/kapas-trade/kapas-trade/internal/payments"
	"github.com/kapas-trade/kapas-trade/internal/platform/cache"
	"github.com/kapas-trade/kapas-trade/internal/platform/db"
	"github.com/kapas-trade/kapas-trade/internal/procurement"
	"github.com/kapas-trade/kapas-trade/internal/rbac"
	"github.com/kapas-trade/kapas-trade/internal/sales"
	"github.com/kapas-trade/kapas-trade/internal/shared"
	"github.com/kapas-trade/kapas-trade/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN, db.Options{MaxConns: cfg.PGMaxConns})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	auditLogger := shared.NewAuditLogger(dbpool)
	idempotencyStore := shared.NewIdempotencyStore(dbpool)
	rbacMiddleware := rbac.Middleware{Logger: logger}
	webhookClient := notify.NewClient(cfg.WorkflowWebhookURL, cfg.WorkflowWebhookSecret)

	dospecRepo := dospec.NewRepository(dbpool)
	dospecService := dospec.NewService(dospecRepo, auditLogger, idempotencyStore)
	dospecHandler := dospec.NewHandler(logger, dospecService)

	inventoryRepo := inventory.NewRepository(dbpool)
	inventoryService := inventory.NewService(inventoryRepo, auditLogger, idempotencyStore)
	inventoryHandler := inventory.NewHandler(logger, inventoryService)

	allocator := allocation.NewAllocator(inventoryRepo)

	salesRepo := sales.NewRepository(dbpool)
	salesCache := sales.NewConfigCache(redisClient, cfg.SalesConfigTTL)
	salesService := sales.NewService(salesRepo, salesCache, allocator, inventoryRepo, auditLogger)
	salesHandler := sales.NewHandler(logger, salesService)

	procurementPolicy := procurement.Policy{
		GSTRate:         cfg.Policy.GSTRate,
		CandyFactor:     cfg.Policy.CandyFactor,
		SouthZoneBaseKg: cfg.Policy.SouthZoneBaseKg,
		OtherZoneBaseKg: cfg.Policy.OtherZoneBaseKg,
		EMDRateSmall:    cfg.Policy.EMDRateSmall,
		EMDRateMid:      cfg.Policy.EMDRateMid,
		EMDRateLarge:    cfg.Policy.EMDRateLarge,
		SmallLotMax:     cfg.Policy.SmallLotMax,
		MidLotMax:       cfg.Policy.MidLotMax,
	}
	procurementRepo := procurement.NewRepository(dbpool)
	procurementService := procurement.NewService(procurementPolicy, procurementRepo, auditLogger)
	procurementHandler := procurement.NewHandler(logger, procurementService)

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("asynq client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("asynq client close", slog.Any("error", err))
		}
	}()

	contractsRepo := contracts.NewRepository(dbpool)
	contractsService := contracts.NewService(logger, contractsRepo, auditLogger, webhookClient, jobClient)
	contractsHandler := contracts.NewHandler(logger, contractsService, rbacMiddleware)

	paymentsRepo := payments.NewRepository(dbpool)
	paymentsService := payments.NewService(paymentsRepo, auditLogger)
	paymentsHandler := payments.NewHandler(logger, paymentsService)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		RBACMiddleware:     rbacMiddleware,
		DOSpecHandler:      dospecHandler,
		InventoryHandler:   inventoryHandler,
		SalesHandler:       salesHandler,
		ProcurementHandler: procurementHandler,
		ContractsHandler:   contractsHandler,
		PaymentsHandler:    paymentsHandler,
		JobHandler:         jobHandler,
		Metrics:            metrics,
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
