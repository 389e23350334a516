// internal/app/store/pgstore/db.go
// Package pgstore implements the capture source and the snapshot sink on
// PostgreSQL through a pgx connection pool.
//
// The tables are owned elsewhere. The sink expects:
//
//	CREATE TABLE zone_daily_snapshots (
//	    project_id       text        NOT NULL,
//	    snapshot_date    date        NOT NULL,
//	    zone_key         text        NOT NULL,
//	    macro_zone       text,
//	    micro_zone       text,
//	    zone             text,
//	    cumulative_ft    double precision NOT NULL DEFAULT 0,
//	    cumulative_botes double precision NOT NULL DEFAULT 0,
//	    cumulative_rolls double precision NOT NULL DEFAULT 0,
//	    cumulative_seams double precision NOT NULL DEFAULT 0,
//	    captures_count   integer     NOT NULL DEFAULT 0,
//	    last_capture_at  timestamptz,
//	    build_id         text,
//	    computed_at      timestamptz NOT NULL DEFAULT now(),
//	    UNIQUE (project_id, snapshot_date, zone_key)
//	);
package pgstore

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Config holds pool settings.
type Config struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	// SearchPath overrides the schema search path when set.
	SearchPath string
}

// Open creates and verifies a pgx pool.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*pgxpool.Pool, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("invalid postgres DSN", zap.Error(err))
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pc.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	pc.ConnConfig.RuntimeParams["application_name"] = "pulse"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = cfg.StatementTimeout.String()
	}
	if cfg.SearchPath != "" {
		pc.ConnConfig.RuntimeParams["search_path"] = cfg.SearchPath
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to create postgres pool", zap.Error(err))
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("failed to reach postgres", zap.Error(err))
		return nil, err
	}

	logger.Info("connected to PostgreSQL",
		zap.Int32("max_conns", pc.MaxConns),
		zap.Int32("min_conns", pc.MinConns))
	return pool, nil
}

// Close closes the pool. A nil pool is ignored.
func Close(pool *pgxpool.Pool, logger *zap.Logger) {
	if pool == nil {
		return
	}
	logger.Info("closing PostgreSQL pool")
	pool.Close()
}

// HealthCheck pings the pool within timeout.
func HealthCheck(ctx context.Context, pool *pgxpool.Pool, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return pool.Ping(ctx)
}
