package bootstrap

import (
	"context"
	"log/slog"

	"github.com/osse101/CatchLog_Go/internal/event"
	"github.com/osse101/CatchLog_Go/internal/scheduler"
	"github.com/osse101/CatchLog_Go/internal/server"
	"github.com/osse101/CatchLog_Go/internal/worker"
)

// ShutdownComponents holds all components that need graceful shutdown.
// Nil members are skipped.
type ShutdownComponents struct {
	Server             *server.Server
	ReconcileWorker    *worker.ReconcileWorker
	Scheduler          *scheduler.Scheduler
	SchedulerPool      *worker.Pool
	ResilientPublisher *event.ResilientPublisher
	Storage            *Storage
}

// GracefulShutdown stops components in dependency order:
// 1. HTTP server (stop accepting new requests)
// 2. Reconcile worker and scheduled jobs (finish in-flight runs)
// 3. Event publisher (flush pending events)
// 4. Storage (close the pool last; everything above may still write)
//
// Errors during shutdown are logged but do not stop the shutdown sequence.
func GracefulShutdown(ctx context.Context, components ShutdownComponents) {
	if components.Server != nil {
		slog.Info(LogMsgShuttingDownServer)
		if err := components.Server.Stop(ctx); err != nil {
			slog.Error(LogMsgServerForcedShutdown, "error", err)
		}
	}

	if components.ReconcileWorker != nil {
		slog.Info(LogMsgShuttingDownWorker)
		if err := components.ReconcileWorker.Shutdown(ctx); err != nil {
			slog.Error(LogMsgWorkerShutdownFailed, "error", err)
		}
	}

	if components.Scheduler != nil {
		slog.Info(LogMsgShuttingDownScheduler)
		if err := components.Scheduler.Stop(ctx); err != nil {
			slog.Error(LogMsgSchedulerShutdownFailed, "error", err)
		}
	}
	if components.SchedulerPool != nil {
		components.SchedulerPool.Stop()
	}

	if components.ResilientPublisher != nil {
		slog.Info(LogMsgShuttingDownEventPublisher)
		if err := components.ResilientPublisher.Shutdown(ctx); err != nil {
			slog.Error(LogMsgResilientPublisherFailed, "error", err)
		}
	}

	if components.Storage != nil {
		components.Storage.Close()
	}

	slog.Info(LogMsgServerStopped)
}
