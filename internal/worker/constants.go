package worker

import "time"

// ============================================================================
// Log Messages - Worker Pool
// ============================================================================

// LogMsgWorkerJobFailed is logged when a worker fails to process a job
const LogMsgWorkerJobFailed = "Worker job failed"

// ============================================================================
// Log Messages - Reconcile Worker
// ============================================================================

const (
	LogMsgReconcileStarting  = "Reconcile pass starting"
	LogMsgReconcileCompleted = "Reconcile pass completed"
	LogMsgReconcileFailed    = "Reconcile pass failed"
	LogMsgReconcileScheduled = "Reconcile worker scheduled"
	LogMsgReconcileShutdown  = "Reconcile worker shutdown complete"
)

// ============================================================================
// Defaults
// ============================================================================

const (
	// DefaultReconcileInterval is how often every account is rebuilt from its ledger
	DefaultReconcileInterval = 6 * time.Hour

	// DefaultReconcileWorkers bounds concurrent account reconciles
	DefaultReconcileWorkers = 4

	// ReconcileJobName names the scheduled job
	ReconcileJobName = "reconcile_accounts"
)
