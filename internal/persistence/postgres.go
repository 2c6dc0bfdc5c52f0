package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/config"
)

// ErrStoreDisabled is returned by Ping on a backing store that was left unconfigured.
var ErrStoreDisabled = errors.New("store not configured")

const connectTimeout = 10 * time.Second

// Postgres holds the pool backing the ticket and transcript repositories.
// Without a DSN the bot keeps tickets in memory and Postgres stays disabled.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres opens the ticket store and verifies it answers.
func NewPostgres(ctx context.Context, cfg config.PostgresConfig, logger *zap.Logger) (*Postgres, error) {
	if cfg.DSN == "" {
		logger.Warn("POSTGRES_DSN not set; open tickets and transcripts are lost on restart")
		return &Postgres{}, nil
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open ticket store: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping ticket store: %w", err)
	}

	logger.Info("ticket store connected",
		zap.String("database", poolCfg.ConnConfig.Database),
		zap.Int32("max_conns", poolCfg.MaxConns))
	return &Postgres{pool: pool}, nil
}

func poolConfig(cfg config.PostgresConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse POSTGRES_DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.ConnMaxIdleSec > 0 {
		poolCfg.MaxConnIdleTime = time.Duration(cfg.ConnMaxIdleSec) * time.Second
	}
	if cfg.ConnMaxLifeSec > 0 {
		poolCfg.MaxConnLifetime = time.Duration(cfg.ConnMaxLifeSec) * time.Second
	}
	return poolCfg, nil
}

func (p *Postgres) Enabled() bool {
	return p != nil && p.pool != nil
}

func (p *Postgres) Close() {
	if p.Enabled() {
		p.pool.Close()
	}
}

// Ping backs the postgres entry of the health endpoint.
func (p *Postgres) Ping(ctx context.Context) error {
	if !p.Enabled() {
		return ErrStoreDisabled
	}
	return p.pool.Ping(ctx)
}

// Pool is nil when the store is disabled.
func (p *Postgres) Pool() *pgxpool.Pool {
	if p == nil {
		return nil
	}
	return p.pool
}
