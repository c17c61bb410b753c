package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osse101/CatchLog_Go/internal/bootstrap"
	"github.com/osse101/CatchLog_Go/internal/catalog"
	"github.com/osse101/CatchLog_Go/internal/config"
	"github.com/osse101/CatchLog_Go/internal/eventlog"
	"github.com/osse101/CatchLog_Go/internal/gamification"
	"github.com/osse101/CatchLog_Go/internal/ratelimit"
	"github.com/osse101/CatchLog_Go/internal/server"
	"github.com/osse101/CatchLog_Go/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logFile, err := bootstrap.SetupLogger(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := bootstrap.OpenStorage(ctx, cfg)
	if err != nil {
		return err
	}

	cat := catalog.New(storage.Store, cfg.CacheSize, cfg.CacheTTL)
	if _, err := bootstrap.SyncCatalog(ctx, cat, cfg.CatalogPath); err != nil {
		storage.Close()
		return err
	}

	eventBus, publisher, err := bootstrap.InitializeEventSystem(cfg)
	if err != nil {
		storage.Close()
		return err
	}
	var eventLog eventlog.Service
	if storage.EventLog != nil {
		eventLog = eventlog.NewService(storage.EventLog)
	}
	if err := bootstrap.RegisterEventHandlers(eventBus, eventLog); err != nil {
		storage.Close()
		return err
	}

	shutdown := bootstrap.ShutdownComponents{ResilientPublisher: publisher, Storage: storage}
	if eventLog != nil {
		shutdown.Scheduler, shutdown.SchedulerPool, err = bootstrap.StartEventLogCleanup(ctx, cfg, eventLog)
		if err != nil {
			storage.Close()
			return err
		}
	}

	svc := gamification.NewService(
		storage.Store,
		cat,
		ratelimit.NewLimiter(cfg.RateLimitHourly, cfg.RateLimitDaily),
		publisher,
		gamification.WithPhotoGracePeriod(cfg.PhotoGracePeriod),
	)

	reconciler := worker.NewReconcileWorker(svc, storage.Store, cfg.ReconcileWorkers, cfg.ReconcileInterval)
	if err := reconciler.Start(ctx); err != nil {
		bootstrap.GracefulShutdown(ctx, shutdown)
		return err
	}
	shutdown.ReconcileWorker = reconciler

	srv := server.NewServer(cfg.MetricsPort, cfg.APIKey, storage.HealthPool(), svc, reconciler)
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
	case err = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	shutdown.Server = srv
	bootstrap.GracefulShutdown(shutdownCtx, shutdown)
	return err
}
