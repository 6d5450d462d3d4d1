package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fieldline/fieldline/internal/app"
	"github.com/fieldline/fieldline/internal/batch"
	"github.com/fieldline/fieldline/internal/customerhealth"
	"github.com/fieldline/fieldline/internal/dispatch"
	jobmetrics "github.com/fieldline/fieldline/internal/jobs"
	"github.com/fieldline/fieldline/internal/platform/cache"
	"github.com/fieldline/fieldline/internal/platform/db"
	"github.com/fieldline/fieldline/internal/pricebook"
	"github.com/fieldline/fieldline/internal/reporting"
	"github.com/fieldline/fieldline/internal/snapshot"
	"github.com/fieldline/fieldline/internal/tenant"
	"github.com/fieldline/fieldline/internal/trend"
	"github.com/fieldline/fieldline/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	trendCalc := trend.NewCalculator(trend.NewStore(pool), logger)
	aggregator := snapshot.NewAggregator(snapshot.NewStore(pool), trendCalc, logger)
	dispatchScorer := dispatch.NewScorer(dispatch.NewStore(pool), logger)
	pricebookScorer := pricebook.NewScorer(pricebook.NewStore(pool), logger)
	healthScorer := customerhealth.NewScorer(customerhealth.NewStore(pool), logger)
	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)

	runner := &batch.Runner{
		Tenants:   tenant.NewStore(pool),
		Snapshots: aggregator,
		Dispatch:  dispatchScorer,
		Pricebook: pricebookScorer,
		Health:    healthScorer,
		Cache:     reportCache,
		Logger:    logger,
		Metrics:   jobmetrics.NewMetrics(nil),
		Workers:   cfg.TenantWorkers,
	}

	snapshotJob := jobs.NewDailySnapshotJob(runner, logger)
	scoresJob := jobs.NewOperationalScoresJob(runner, logger)

	snapshotTask, err := jobs.NewDailySnapshotTask(jobs.DailySnapshotPayload{})
	if err != nil {
		logger.Error("build snapshot task", slog.Any("error", err))
		os.Exit(1)
	}
	scoresTask, err := jobs.NewOperationalScoresTask(jobs.OperationalScoresPayload{})
	if err != nil {
		logger.Error("build scores task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAnalyticsDailySnapshot, Handler: snapshotJob.Handle},
			{Type: jobs.TaskAnalyticsOperationalScores, Handler: scoresJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.SnapshotCron, Task: snapshotTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: cfg.ScoresCron, Task: scoresTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
