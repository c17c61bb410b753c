package database

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool is the slice of a connection pool the health checks need
type Pool interface {
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig sizes a PostgreSQL connection pool. Zero durations keep the pgx defaults.
type PoolConfig struct {
	ConnString string
	MaxConns   int
	MaxIdle    time.Duration
	MaxLife    time.Duration
}

// NewPool opens a PostgreSQL connection pool and verifies it with a ping.
// Every engine write holds one connection for the length of its transaction,
// so MaxConns bounds how many accounts can be evaluated at once.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	pgCfg, err := pgxpool.ParseConfig(cfg.ConnString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToParseConnString, err)
	}

	if cfg.MaxConns > 0 {
		pgCfg.MaxConns = int32(min(cfg.MaxConns, math.MaxInt32))
	}
	pgCfg.MinConns = min(DefaultMinConnections, pgCfg.MaxConns)
	if cfg.MaxLife > 0 {
		pgCfg.MaxConnLifetime = cfg.MaxLife
	}
	if cfg.MaxIdle > 0 {
		pgCfg.MaxConnIdleTime = cfg.MaxIdle
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePool, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToPingDatabase, err)
	}

	slog.Default().Info(LogMsgSuccessfullyConnectedToDatabase,
		"max_conns", pgCfg.MaxConns,
		"min_conns", pgCfg.MinConns)
	return pool, nil
}
