package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPostgresPool opens the pgx pool, sized from PG_MAX_CONNS/PG_MIN_CONNS,
// and fails fast when the database cannot be pinged.
func NewPostgresPool(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	tunePool(poolCfg, cfg.PGMaxConns, cfg.PGMinConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// tunePool applies connection limits. Settlement and placement hold a
// connection for the length of a transaction, so idle connections are
// recycled quickly rather than kept warm.
func tunePool(c *pgxpool.Config, maxConns, minConns int32) {
	if maxConns > 0 {
		c.MaxConns = maxConns
	}
	if minConns > 0 && minConns <= c.MaxConns {
		c.MinConns = minConns
	}
	c.MaxConnLifetime = 30 * time.Minute
	c.MaxConnIdleTime = 2 * time.Minute
	c.HealthCheckPeriod = 30 * time.Second
}

// HealthCheck pings the database with a short deadline. The API's /health
// and the worker's metrics listener both report through it.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	return nil
}
