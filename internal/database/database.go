// Package database provides PostgreSQL connection management using pgx.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/spot-booking/internal/config"
)

// NewPool creates and validates a pgxpool connection pool.
// It retries cfg.ConnectAttempts times to accommodate containers starting up.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	var pool *pgxpool.Pool
	for attempt := 1; attempt <= cfg.ConnectAttempts; attempt++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		log.Warn("db connect attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", cfg.ConnectAttempts),
			zap.Duration("retry_in", cfg.ConnectBackoff),
			zap.Error(err),
		)
		if attempt == cfg.ConnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("connect to postgres: %w", ctx.Err())
		case <-time.After(cfg.ConnectBackoff):
		}
	}
	return nil, fmt.Errorf("connect to postgres: %w", err)
}
