package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/receiving/internal/app"
	"github.com/odyssey-erp/receiving/internal/inward"
	"github.com/odyssey-erp/receiving/internal/observability"
	"github.com/odyssey-erp/receiving/internal/platform/cache"
	"github.com/odyssey-erp/receiving/internal/platform/store"
	"github.com/odyssey-erp/receiving/internal/pricing"
	"github.com/odyssey-erp/receiving/internal/receiving"
	"github.com/odyssey-erp/receiving/jobs"
)

const (
	worksheetPrefix = "receiving:worksheets"
	inwardPrefix    = "inward:entries"
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
	slog.SetDefault(logger)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	backendClient := app.NewBackendClient(cfg, logger)

	pricingService, closeSource, err := app.NewPricingService(ctx, cfg, redisClient, backendClient, metrics)
	if err != nil {
		logger.Error("init pricing", slog.Any("error", err), slog.String("rules_source", cfg.RulesSource))
		os.Exit(1)
	}
	defer closeSource()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	var refreshQueue pricing.RefreshEnqueuer
	var jobHandler *jobs.Handler
	if !app.InTestMode() {
		queueClient, err := jobs.NewClient(redisOpts)
		if err != nil {
			logger.Error("init job client", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := queueClient.Close(); err != nil {
				logger.Warn("job client close", slog.Any("error", err))
			}
		}()
		refreshQueue = queueClient

		inspector := asynq.NewInspector(redisOpts)
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	worksheets := store.New[receiving.Worksheet](redisClient, worksheetPrefix, cfg.WorksheetTTL)
	receivingService := receiving.NewService(worksheets, pricingService, backendClient, backendClient, metrics, logger)

	inwards := store.New[inward.Inward](redisClient, inwardPrefix, cfg.WorksheetTTL)
	inwardService := inward.NewService(inwards, backendClient, metrics, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		PricingHandler:   pricing.NewHandler(logger, pricingService, refreshQueue),
		ReceivingHandler: receiving.NewHandler(logger, receivingService),
		InwardHandler:    inward.NewHandler(logger, inwardService),
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("rules_source", cfg.RulesSource))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
