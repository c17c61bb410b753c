package config

import "time"

const (
	// Configuration file paths
	ConfigPathChallenges = "configs/challenges.json"
)

// Defaults
const (
	DefaultMetricsPort       = 9090
	DefaultRateLimitHourly   = 10
	DefaultRateLimitDaily    = 50
	DefaultPhotoGracePeriod  = time.Hour
	DefaultReconcileInterval = 6 * time.Hour
	DefaultReconcileWorkers  = 4
	DefaultLogDir            = "logs"
	DefaultDeadLetterPath    = "logs/event_deadletter.jsonl"
	DefaultEventMaxRetries   = 5
	DefaultEventRetryDelay   = 2 * time.Second

	DefaultEventLogRetentionDays   = 90
	DefaultEventLogCleanupInterval = 24 * time.Hour
	DefaultCacheTTL                = 5 * time.Minute
	DefaultCacheSize               = 1024
	DefaultDBMaxConns              = 10
	DefaultDBMaxIdle               = 30 * time.Minute
	DefaultDBMaxLife               = time.Hour
)

// Storage backends
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)
