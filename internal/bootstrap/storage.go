package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/CatchLog_Go/internal/catalog"
	"github.com/osse101/CatchLog_Go/internal/config"
	"github.com/osse101/CatchLog_Go/internal/database"
	"github.com/osse101/CatchLog_Go/internal/database/memory"
	"github.com/osse101/CatchLog_Go/internal/database/postgres"
	"github.com/osse101/CatchLog_Go/internal/eventlog"
	"github.com/osse101/CatchLog_Go/internal/repository"
)

// Storage is the opened backend. Pool and EventLog are nil for the in-memory store.
type Storage struct {
	Store    repository.Store
	Pool     *pgxpool.Pool
	EventLog eventlog.Repository
}

// NewDatabasePool opens the PostgreSQL pool described by cfg
func NewDatabasePool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return database.NewPool(ctx, database.PoolConfig{
		ConnString: cfg.GetDBConnString(),
		MaxConns:   cfg.DBMaxConns,
		MaxIdle:    cfg.DBMaxIdle,
		MaxLife:    cfg.DBMaxLife,
	})
}

// OpenStorage connects to the configured backend. The PostgreSQL schema is
// migrated to the latest version before the store is returned.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg.Store == config.StoreMemory {
		slog.Warn(LogMsgUsingMemoryStore)
		return &Storage{Store: memory.NewStore()}, nil
	}

	pool, err := NewDatabasePool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedConnectDB, err)
	}
	if err := database.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedMigrate, err)
	}

	slog.Info(LogMsgUsingPostgresStore, "host", cfg.DBHost, "db", cfg.DBName)
	return &Storage{
		Store:    postgres.NewStore(pool),
		Pool:     pool,
		EventLog: postgres.NewEventLogRepository(pool),
	}, nil
}

// HealthPool returns the pool for readiness checks, or a nil interface for the memory store
func (s *Storage) HealthPool() database.Pool {
	if s.Pool == nil {
		return nil
	}
	return s.Pool
}

// Close releases the connection pool, if any
func (s *Storage) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

// SyncCatalog loads, validates and upserts the challenge catalog
func SyncCatalog(ctx context.Context, cat *catalog.Catalog, path string) (*catalog.SyncResult, error) {
	slog.Info(LogMsgSyncingCatalog, "path", path)

	result, err := cat.Sync(ctx, catalog.NewLoader(), path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedSyncCatalog, err)
	}

	if result.ChallengesInserted == 0 && result.ChallengesUpdated == 0 {
		slog.Info(LogMsgCatalogUnchanged)
	}
	return result, nil
}
