package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fieldline/fieldline/internal/app"
	"github.com/fieldline/fieldline/internal/batch"
	"github.com/fieldline/fieldline/internal/customerhealth"
	"github.com/fieldline/fieldline/internal/dispatch"
	jobmetrics "github.com/fieldline/fieldline/internal/jobs"
	"github.com/fieldline/fieldline/internal/observability"
	"github.com/fieldline/fieldline/internal/platform/cache"
	"github.com/fieldline/fieldline/internal/platform/db"
	"github.com/fieldline/fieldline/internal/pricebook"
	"github.com/fieldline/fieldline/internal/reporting"
	"github.com/fieldline/fieldline/internal/snapshot"
	"github.com/fieldline/fieldline/internal/tenant"
	"github.com/fieldline/fieldline/internal/trend"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, report caching degraded", slog.Any("error", err))
	}
	defer func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}
	}()

	metrics := observability.NewMetrics()
	batchMetrics := jobmetrics.NewMetrics(metrics.Registerer())

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
		Metrics:   batchMetrics,
		Workers:   cfg.TenantWorkers,
	}

	batchHandler := batch.NewHandler(runner, cfg.CronSecret, logger)
	reportingHandler := reporting.NewHandler(reporting.NewService(snapshot.NewStore(pool), reportCache))

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		BatchHandler:     batchHandler,
		ReportingHandler: reportingHandler,
		Metrics:          metrics,
	})

	// Cron runs stream their summary once the whole batch finishes, so the
	// write timeout has to outlast the batch budget.
	writeTimeout := cfg.AppWriteTimeout
	if cfg.BatchTimeout+30*time.Second > writeTimeout {
		writeTimeout = cfg.BatchTimeout + 30*time.Second
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: writeTimeout,
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
