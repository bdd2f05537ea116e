/**
 * @description
 * Worker Service Entry Point.
 * Owns startup migration, wires the provider adapters and pipeline stages,
 * and drives the per-minute cycle through the scheduler. Drains the in-flight
 * cycle on SIGINT/SIGTERM and closes the pool before exit.
 *
 * @dependencies
 * - backend/internal/config
 * - backend/internal/db
 * - backend/internal/providers
 * - backend/internal/scheduler
 */

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/marketpulse-project/backend/internal/alerter"
	"github.com/marketpulse-project/backend/internal/config"
	"github.com/marketpulse-project/backend/internal/db"
	"github.com/marketpulse-project/backend/internal/logger"
	"github.com/marketpulse-project/backend/internal/pipeline"
	"github.com/marketpulse-project/backend/internal/profiler"
	"github.com/marketpulse-project/backend/internal/providers"
	"github.com/marketpulse-project/backend/internal/providers/kalshi"
	"github.com/marketpulse-project/backend/internal/providers/opinion"
	"github.com/marketpulse-project/backend/internal/providers/polymarket"
	"github.com/marketpulse-project/backend/internal/scheduler"
	"github.com/marketpulse-project/backend/internal/signals"
	"github.com/marketpulse-project/backend/internal/store"
	"github.com/redis/go-redis/v9"
)

func main() {
	logger.Info("🔥 Starting MarketPulse Worker...")

	// 1. Load Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config: %v", err)
	}

	// 2. Connect Postgres and apply migrations
	pgDB, err := db.ConnectPostgres(cfg)
	if err != nil {
		logger.Fatal("Postgres connection failed: %v", err)
	}
	defer db.ClosePostgres(pgDB)

	if err := db.Migrate(pgDB); err != nil {
		logger.Fatal("Migration failed: %v", err)
	}

	// 3. Redis is optional for the worker: alert events and caches degrade.
	var redisClient *redis.Client
	if client, err := db.ConnectRedis(cfg); err != nil {
		logger.Error("Redis unavailable, alert events disabled: %v", err)
	} else {
		redisClient = client
	}

	// 4. Chat transport
	dispatcher, err := alerter.NewDispatcher(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize chat transport: %v", err)
	}
	if dispatcher == nil {
		logger.Info("Chat transport not configured; alerts will be logged only")
	} else {
		logger.Info("Chat transport: %s", dispatcher.Name())
	}

	// 5. Build the pipeline
	adapters := []providers.Provider{
		polymarket.NewAdapter(cfg),
		kalshi.NewAdapter(cfg),
		opinion.NewAdapter(cfg),
	}
	for _, adapter := range adapters {
		if !adapter.Enabled() {
			logger.Info("Provider %s disabled", adapter.Name())
		}
	}

	modelLoader := profiler.NewModelLoader(cfg.Model.Path, cfg.Model.ReloadInterval)

	pipe := &scheduler.Pipeline{
		Providers:  adapters,
		Store:      store.NewSnapshotStore(pgDB),
		Profiler:   profiler.NewService(pgDB, modelLoader),
		Deltas:     pipeline.NewDeltaEngine(pgDB),
		Signals:    signals.NewTracker(cfg.Signals.SpotBaseURL),
		Classifier: pipeline.NewClassifier(pgDB),
		Alerter: alerter.New(pgDB, redisClient, dispatcher,
			cfg.Alerts.MinLiquidityUSD, cfg.Alerts.MaxSpreadPP, cfg.Alerts.Cooldown),
	}

	sched := scheduler.New(pipe, cfg.Worker.Interval)

	// 6. Run until signalled; Start returns once the in-flight cycle drains.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sched.Start(ctx)
		close(done)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	cancel()
	<-done

	logger.Info("Worker exited.")
}
