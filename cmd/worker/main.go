package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/receiving/internal/app"
	"github.com/odyssey-erp/receiving/internal/observability"
	"github.com/odyssey-erp/receiving/internal/platform/cache"
	"github.com/odyssey-erp/receiving/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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
		logger.Error("init pricing", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeSource()

	refreshJob := jobs.NewRulesRefreshJob(pricingService, redislock.New(redisClient), logger, metrics.Jobs())
	refreshTask, err := jobs.NewRulesRefreshTask("schedule")
	if err != nil {
		logger.Error("build rules refresh task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskPricingRulesRefresh, Handler: refreshJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.RulesRefreshCron, Task: refreshTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("rules_refresh_cron", cfg.RulesRefreshCron))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
