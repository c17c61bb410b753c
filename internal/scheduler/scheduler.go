package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/worker"
)

const (
	LogMsgJobDropped     = "Scheduled job dropped; worker pool stopped"
	LogMsgJobScheduled   = "Job scheduled"
	LogMsgSchedulerStops = "Scheduler stopped"
)

// Scheduler enqueues jobs onto a worker pool at fixed intervals.
// A tick that fires while the previous run of the same job is still
// being enqueued is rescheduled instead of stacking up.
type Scheduler struct {
	workerPool *worker.Pool
	cron       gocron.Scheduler
	stopOnce   sync.Once
}

// New creates a new scheduler. Jobs run on pool, which the caller starts and stops.
func New(pool *worker.Pool) (*Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{workerPool: pool, cron: cron}, nil
}

// Schedule registers a job to run every interval. The first run is one interval after Start.
func (s *Scheduler) Schedule(name string, interval time.Duration, job worker.Job) error {
	_, err := s.cron.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if !s.workerPool.Enqueue(job) {
				logger.Warn(LogMsgJobDropped, "job", name)
			}
		}),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", name, err)
	}
	logger.Info(LogMsgJobScheduled, "job", name, "interval", interval)
	return nil
}

// Start begins firing scheduled jobs
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops firing jobs. Jobs already on the pool are left to the pool.
func (s *Scheduler) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		done := make(chan error, 1)
		go func() { done <- s.cron.Shutdown() }()
		select {
		case err = <-done:
			logger.Info(LogMsgSchedulerStops)
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}
