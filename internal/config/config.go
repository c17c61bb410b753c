package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/osse101/CatchLog_Go/internal/logger"
)

// Config holds the application configuration
type Config struct {
	MetricsPort int
	LogLevel    string
	LogFormat   string
	Environment string
	ServiceName string
	Version     string

	Store      string // "postgres" or "memory"
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	DBMaxConns int
	DBMaxIdle  time.Duration
	DBMaxLife  time.Duration

	CatalogPath string
	CacheSize   int
	CacheTTL    time.Duration

	RateLimitHourly   int
	RateLimitDaily    int
	PhotoGracePeriod  time.Duration
	ReconcileInterval time.Duration
	ReconcileWorkers  int

	// APIKey guards the admin routes; empty disables them
	APIKey string

	LogDir          string
	DeadLetterPath  string
	EventMaxRetries int
	EventRetryDelay time.Duration

	EventLogRetentionDays   int
	EventLogCleanupInterval time.Duration
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	logDefaults := logger.DefaultConfig()
	cfg := &Config{
		MetricsPort: getEnvAsInt("METRICS_PORT", DefaultMetricsPort),
		LogLevel:    getEnv("LOG_LEVEL", logDefaults.Level),
		LogFormat:   getEnv("LOG_FORMAT", logDefaults.Format),
		Environment: getEnv("ENVIRONMENT", logDefaults.Environment),
		ServiceName: getEnv("SERVICE_NAME", logDefaults.ServiceName),
		Version:     getEnv("VERSION", logDefaults.Version),

		Store:      getEnv("STORE", StorePostgres),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "catchlog"),
		DBMaxConns: getEnvAsInt("DB_MAX_CONNS", DefaultDBMaxConns),
		DBMaxIdle:  getEnvAsDuration("DB_MAX_IDLE", DefaultDBMaxIdle),
		DBMaxLife:  getEnvAsDuration("DB_MAX_LIFE", DefaultDBMaxLife),

		CatalogPath: getEnv("CATALOG_PATH", ConfigPathChallenges),
		CacheSize:   getEnvAsInt("CACHE_SIZE", DefaultCacheSize),
		CacheTTL:    getEnvAsDuration("CACHE_TTL", DefaultCacheTTL),

		RateLimitHourly:   getEnvAsInt("RATE_LIMIT_HOURLY", DefaultRateLimitHourly),
		RateLimitDaily:    getEnvAsInt("RATE_LIMIT_DAILY", DefaultRateLimitDaily),
		PhotoGracePeriod:  getEnvAsDuration("PHOTO_GRACE_PERIOD", DefaultPhotoGracePeriod),
		ReconcileInterval: getEnvAsDuration("RECONCILE_INTERVAL", DefaultReconcileInterval),
		ReconcileWorkers:  getEnvAsInt("RECONCILE_WORKERS", DefaultReconcileWorkers),

		APIKey: getEnv("API_KEY", ""),

		LogDir:          getEnv("LOG_DIR", DefaultLogDir),
		DeadLetterPath:  getEnv("DEAD_LETTER_PATH", DefaultDeadLetterPath),
		EventMaxRetries: getEnvAsInt("EVENT_MAX_RETRIES", DefaultEventMaxRetries),
		EventRetryDelay: getEnvAsDuration("EVENT_RETRY_DELAY", DefaultEventRetryDelay),

		EventLogRetentionDays:   getEnvAsInt("EVENT_LOG_RETENTION_DAYS", DefaultEventLogRetentionDays),
		EventLogCleanupInterval: getEnvAsDuration("EVENT_LOG_CLEANUP_INTERVAL", DefaultEventLogCleanupInterval),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that would make the engine misbehave
func (c *Config) Validate() error {
	if _, ok := logger.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("invalid LOG_LEVEL value %q", c.LogLevel)
	}
	if c.Store != StorePostgres && c.Store != StoreMemory {
		return fmt.Errorf("invalid STORE value %q: must be %q or %q", c.Store, StorePostgres, StoreMemory)
	}
	if c.RateLimitHourly <= 0 || c.RateLimitDaily <= 0 {
		return fmt.Errorf("rate limits must be positive (hourly=%d, daily=%d)", c.RateLimitHourly, c.RateLimitDaily)
	}
	if c.PhotoGracePeriod <= 0 {
		return fmt.Errorf("PHOTO_GRACE_PERIOD must be positive, got %s", c.PhotoGracePeriod)
	}
	if c.ReconcileWorkers <= 0 {
		return fmt.Errorf("RECONCILE_WORKERS must be positive, got %d", c.ReconcileWorkers)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("CACHE_SIZE must be positive, got %d", c.CacheSize)
	}
	return nil
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an integer environment variable, falling back on parse errors
func getEnvAsInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAsDuration retrieves a time.Duration environment variable ("90s", "1h")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
