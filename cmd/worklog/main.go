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

	"github.com/odyssey-erp/worklog/internal/app"
	"github.com/odyssey-erp/worklog/internal/auth"
	"github.com/odyssey-erp/worklog/internal/billing/dailyreports"
	"github.com/odyssey-erp/worklog/internal/billing/invoices"
	"github.com/odyssey-erp/worklog/internal/observability"
	"github.com/odyssey-erp/worklog/internal/platform/cache"
	"github.com/odyssey-erp/worklog/internal/platform/db"
	"github.com/odyssey-erp/worklog/internal/tenants"
	"github.com/odyssey-erp/worklog/jobs"
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

	dbpool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{
		MaxConns:        cfg.PGMaxConns,
		MaxConnLifetime: cfg.PGMaxConnLifetime,
	})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		// Settings are read straight from Postgres without a cache.
		logger.Warn("redis unavailable", slog.Any("error", err))
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	jobsClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	tenantStore := tenants.NewStore(dbpool)
	settings := tenants.NewSettingsCache(redisClient, tenantStore, cfg.BillingSettingsCacheTTL, logger)

	reportRepo := dailyreports.NewRepository(dbpool)
	reportService := dailyreports.NewService(reportRepo)
	reportHandler := dailyreports.NewHandler(logger, reportService)

	invoiceRepo := invoices.NewRepository(dbpool)
	invoiceService := invoices.NewService(invoiceRepo, settings, reportService, jobsClient, metrics.Billing(), logger, invoices.ServiceConfig{
		MaxAttempts: cfg.BillingIssueMaxAttempts,
	})
	invoiceHandler := invoices.NewHandler(logger, invoiceService)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Verifier:           auth.NewVerifier(cfg.AuthJWTSecret, cfg.AuthJWTIssuer),
		InvoiceHandler:     invoiceHandler,
		DailyReportHandler: reportHandler,
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
