package eventlog

import (
	"context"
	"time"

	"github.com/osse101/CatchLog_Go/internal/logger"
	"github.com/osse101/CatchLog_Go/internal/metrics"
)

// CleanupJob prunes event log rows past the retention window. It satisfies
// worker.Job so the scheduler can run it on the shared pool.
type CleanupJob struct {
	service       Service
	retentionDays int
	timeout       time.Duration
}

// NewCleanupJob creates a cleanup job. retentionDays <= 0 uses DefaultRetentionDays.
func NewCleanupJob(service Service, retentionDays int) *CleanupJob {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	return &CleanupJob{
		service:       service,
		retentionDays: retentionDays,
		timeout:       DefaultCleanupTimeout,
	}
}

// Process runs one cleanup pass
func (j *CleanupJob) Process(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	log := logger.FromContext(ctx).With("retention_days", j.retentionDays)
	log.Debug(LogMsgCleanupJobStarting)

	start := time.Now()
	count, err := j.service.CleanupOldEvents(ctx, j.retentionDays)
	if err != nil {
		log.Error(LogMsgCleanupJobFailed, "error", err, "duration", time.Since(start))
		return err
	}

	metrics.EventLogPruned.Add(float64(count))
	log.Info(LogMsgCleanupJobCompleted, "deleted", count, "duration", time.Since(start))
	return nil
}
