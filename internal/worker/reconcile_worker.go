package worker

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/osse101/CatchLog_Go/internal/domain"
	"github.com/osse101/CatchLog_Go/internal/logger"
)

// Reconciler rebuilds one account from its ledger
type Reconciler interface {
	Reconcile(ctx context.Context, accountID string) (*domain.ReconcileResult, error)
}

// AccountLister enumerates the accounts to reconcile
type AccountLister interface {
	ListAccountIDs(ctx context.Context) ([]string, error)
}

// ReconcileSummary reports one pass over every account
type ReconcileSummary struct {
	Accounts int `json:"accounts"`
	Drifted  int `json:"drifted"`
	Failed   int `json:"failed"`
}

// ReconcileWorker periodically recomputes XP, level and the country cache
// for every account, fanning accounts out over a worker pool.
type ReconcileWorker struct {
	reconciler Reconciler
	accounts   AccountLister
	workers    int
	interval   time.Duration

	mu        sync.Mutex
	scheduler gocron.Scheduler
}

// NewReconcileWorker creates a worker; non-positive values fall back to defaults
func NewReconcileWorker(reconciler Reconciler, accounts AccountLister, workers int, interval time.Duration) *ReconcileWorker {
	if workers <= 0 {
		workers = DefaultReconcileWorkers
	}
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &ReconcileWorker{
		reconciler: reconciler,
		accounts:   accounts,
		workers:    workers,
		interval:   interval,
	}
}

// Start schedules RunOnce every interval. Overlapping runs are skipped.
func (w *ReconcileWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.scheduler != nil {
		return nil
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if _, err := w.RunOnce(ctx); err != nil {
				logger.FromContext(ctx).Error(LogMsgReconcileFailed, "error", err)
			}
		}),
		gocron.WithName(ReconcileJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("failed to schedule reconcile: %w", err)
	}

	sched.Start()
	w.scheduler = sched
	logger.FromContext(ctx).Info(LogMsgReconcileScheduled, "interval", w.interval, "workers", w.workers)
	return nil
}

// RunOnce reconciles every account and waits for the pass to finish
func (w *ReconcileWorker) RunOnce(ctx context.Context) (ReconcileSummary, error) {
	log := logger.FromContext(ctx)

	ids, err := w.accounts.ListAccountIDs(ctx)
	if err != nil {
		return ReconcileSummary{}, fmt.Errorf("failed to list accounts: %w", err)
	}
	log.Info(LogMsgReconcileStarting, "accounts", len(ids))

	var drifted, failed int32
	var wg sync.WaitGroup

	pool := NewPool(w.workers, len(ids))
	pool.Start(ctx)
	for _, id := range ids {
		wg.Add(1)
		queued := pool.Enqueue(JobFunc(func(ctx context.Context) error {
			defer wg.Done()
			result, err := w.reconciler.Reconcile(ctx, id)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				return fmt.Errorf("reconcile %s: %w", id, err)
			}
			if result.Drift() != 0 {
				atomic.AddInt32(&drifted, 1)
			}
			return nil
		}))
		if !queued {
			wg.Done()
		}
	}
	wg.Wait()
	pool.Stop()

	summary := ReconcileSummary{Accounts: len(ids), Drifted: int(drifted), Failed: int(failed)}
	log.Info(LogMsgReconcileCompleted, "accounts", summary.Accounts, "drifted", summary.Drifted, "failed", summary.Failed)
	return summary, nil
}

// Shutdown stops the scheduler and waits for a running pass to finish
func (w *ReconcileWorker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	sched := w.scheduler
	w.scheduler = nil
	w.mu.Unlock()
	if sched == nil {
		return nil
	}

	done := make(chan error, 1)
	go func() { done <- sched.Shutdown() }()

	select {
	case err := <-done:
		logger.FromContext(ctx).Info(LogMsgReconcileShutdown)
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
