package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spacesedan/sentigate/config"
	"github.com/spacesedan/sentigate/internal/auth"
	"github.com/spacesedan/sentigate/internal/cache"
	"github.com/spacesedan/sentigate/internal/clients"
	"github.com/spacesedan/sentigate/internal/db"
	"github.com/spacesedan/sentigate/internal/events"
	"github.com/spacesedan/sentigate/internal/inference"
	"github.com/spacesedan/sentigate/internal/logging"
	"github.com/spacesedan/sentigate/internal/server"
	"github.com/spacesedan/sentigate/internal/storage"
	"github.com/spacesedan/sentigate/internal/telemetry"
	"github.com/spacesedan/sentigate/internal/workers"
)

const SHUTDOWN_TIMEOUT = 10 * time.Second

func main() {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	config.LoadEnv(env)
	logging.InitLogger(env)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("[Main] Invalid configuration",
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tele := telemetry.NewEmitter()
	pool := workers.NewPool(workers.DEFAULT_QUEUE_SIZE, workers.DEFAULT_WORKER_COUNT, tele)

	awsCfg, err := clients.NewAWSConfig(ctx, cfg.Storage.Region)
	if err != nil {
		slog.Error("[Main] Failed to load AWS configuration",
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	logs := storage.NewRequestLogStore(clients.NewS3Client(awsCfg, cfg.Storage.Endpoint), cfg.Storage.Bucket)
	users := db.NewUserStore(clients.NewDynamoDBClient(awsCfg, cfg.Storage.Endpoint), cfg.UsersTable)

	var analyzer inference.Analyzer
	switch cfg.Provider {
	case config.ProviderLocal:
		analyzer = inference.NewLocalAnalyzer(tele)
		slog.Info("[Main] Using local inference provider")
	default:
		analyzer = inference.NewOpenAIAnalyzer(clients.NewOpenAIClient(cfg.OpenAI), cfg, tele)
	}

	// Cache and events are optional: a failed init degrades the service
	// instead of killing it.
	var cachePinger server.Pinger
	if cfg.Cache.Enabled() {
		vc, err := cache.NewValkeyCache(cfg.Cache)
		if err != nil {
			slog.Warn("[Main] Cache unavailable, continuing without it",
				slog.String("error", err.Error()))
		} else {
			defer vc.Close()
			analyzer = cache.NewCachedAnalyzer(analyzer, vc, cfg, pool, tele)
			cachePinger = vc
		}
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.Enabled() {
		kp, err := events.NewKafkaPublisher(cfg.Events)
		if err != nil {
			slog.Warn("[Main] Event publisher unavailable, continuing without it",
				slog.String("error", err.Error()))
		} else {
			publisher = kp
		}
	}
	defer publisher.Close()

	srv := server.New(server.Deps{
		Settings:  cfg,
		Analyzer:  analyzer,
		Logs:      logs,
		Users:     users,
		Tokens:    auth.NewTokenManager(cfg.Auth),
		Pool:      pool,
		Telemetry: tele,
		Publisher: publisher,
		Cache:     cachePinger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), SHUTDOWN_TIMEOUT)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("[Main] Server exited with error",
			slog.String("error", err.Error()))
	}

	// Drain queued background work before the deferred closes flush and
	// disconnect the producers.
	pool.Close()
	slog.Info("[Main] Shutdown complete")
}
