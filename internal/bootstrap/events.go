package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/osse101/CatchLog_Go/internal/config"
	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/eventlog"
	"github.com/osse101/CatchLog_Go/internal/metrics"
	"github.com/osse101/CatchLog_Go/internal/scheduler"
	"github.com/osse101/CatchLog_Go/internal/worker"
)

// InitializeEventSystem creates the event bus and the resilient publisher the
// engine publishes through. Failed deliveries are retried with exponential
// backoff, then written to the dead-letter file.
func InitializeEventSystem(cfg *config.Config) (event.Bus, *event.ResilientPublisher, error) {
	eventBus := event.NewMemoryBus()

	maxRetries := cfg.EventMaxRetries
	if maxRetries == 0 {
		maxRetries = event.RetryMaxAttempts
	}

	retryDelay := cfg.EventRetryDelay
	if retryDelay == 0 {
		retryDelay = config.DefaultEventRetryDelay
	}

	deadLetterPath := cfg.DeadLetterPath
	if deadLetterPath == "" {
		deadLetterPath = config.DefaultDeadLetterPath
	}

	if err := os.MkdirAll(filepath.Dir(deadLetterPath), DirPermission); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", LogMsgFailedCreateDeadLetterDir, err)
	}

	resilientPublisher, err := event.NewResilientPublisher(eventBus, maxRetries, retryDelay, deadLetterPath,
		event.WithDeadLetterHook(metrics.RecordDeadLetter))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", LogMsgFailedCreateResilientPublisher, err)
	}

	slog.Info(LogMsgEventSystemInitialized,
		"max_retries", maxRetries,
		"retry_delay", retryDelay,
		"deadletter_path", deadLetterPath)

	return eventBus, resilientPublisher, nil
}

// RegisterEventHandlers subscribes the in-process consumers of engine events.
// eventLog may be nil when no durable store is configured.
func RegisterEventHandlers(eventBus event.Bus, eventLog eventlog.Service) error {
	metricsCollector := metrics.NewEventMetricsCollector()
	if err := metricsCollector.Register(eventBus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedRegisterMetrics, err)
	}
	slog.Info(LogMsgMetricsCollectorRegistered)

	if eventLog == nil {
		return nil
	}
	if err := eventLog.Subscribe(eventBus); err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedSubscribeEventLogger, err)
	}
	slog.Info(LogMsgEventLoggerInitialized)
	return nil
}

// StartEventLogCleanup schedules the retention job on a single-worker pool.
// The caller stops the scheduler, then the pool.
func StartEventLogCleanup(ctx context.Context, cfg *config.Config, eventLog eventlog.Service) (*scheduler.Scheduler, *worker.Pool, error) {
	pool := worker.NewPool(1, 1)
	sched, err := scheduler.New(pool)
	if err != nil {
		return nil, nil, err
	}
	job := eventlog.NewCleanupJob(eventLog, cfg.EventLogRetentionDays)
	if err := sched.Schedule(EventLogCleanupJobName, cfg.EventLogCleanupInterval, job); err != nil {
		_ = sched.Stop(ctx)
		return nil, nil, err
	}
	pool.Start(ctx)
	sched.Start()
	return sched, pool, nil
}
