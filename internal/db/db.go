package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// PostgresConfig tunes the slot pool. It is read from POSTGRES_* variables;
// the DSN itself comes from DB_DSN.
type PostgresConfig struct {
	MaxConns        int32         `split_words:"true" default:"10"`
	MinConns        int32         `split_words:"true" default:"0"`
	MaxConnIdleTime time.Duration `split_words:"true" default:"5m"`
	MaxConnLifetime time.Duration `split_words:"true" default:"30m"`
	PingTimeout     time.Duration `split_words:"true" default:"5s"`
}

// PoolConfig parses dsn and applies the pool limits. Zero limits keep the
// pgx defaults.
func (c PostgresConfig) PoolConfig(dsn string) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if c.MaxConns > 0 {
		pc.MaxConns = c.MaxConns
	}
	if c.MinConns > 0 {
		pc.MinConns = c.MinConns
	}
	if c.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = c.MaxConnIdleTime
	}
	if c.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = c.MaxConnLifetime
	}
	return pc, nil
}

// Connect opens the pool for dsn and returns it only once a ping succeeds.
func Connect(ctx context.Context, dsn string, cfg PostgresConfig, logger zerolog.Logger) (*pgxpool.Pool, error) {
	pc, err := cfg.PoolConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info().
		Str("host", pc.ConnConfig.Host).
		Str("database", pc.ConnConfig.Database).
		Int32("max_conns", pc.MaxConns).
		Msg("postgres connected")
	return pool, nil
}
