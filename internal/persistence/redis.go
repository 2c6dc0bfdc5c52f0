package persistence

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-relay/internal/config"
)

const redisTimeout = 3 * time.Second

// Redis carries the client shared by the ticket-open lock and the AI
// rate limiter. A zero Redis is valid and reports itself as disabled.
type Redis struct {
	Client *redis.Client
}

// NewRedis builds the client. An unreachable server is logged but not
// fatal: go-redis reconnects lazily and both consumers fail open.
func NewRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *Redis {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not set; ticket-open locking and AI throttling run without redis")
		return &Redis{}
	}

	client := redis.NewClient(redisOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable at startup", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		logger.Info("redis connected", zap.String("addr", cfg.Addr), zap.Int("db", cfg.DB))
	}
	return &Redis{Client: client}
}

func redisOptions(cfg config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  redisTimeout,
		ReadTimeout:  redisTimeout,
		WriteTimeout: redisTimeout,
	}
}

func (r *Redis) Enabled() bool {
	return r != nil && r.Client != nil
}

func (r *Redis) Close() {
	if r.Enabled() {
		_ = r.Client.Close()
	}
}

// Ping backs the redis entry of the health endpoint.
func (r *Redis) Ping(ctx context.Context) error {
	if !r.Enabled() {
		return ErrStoreDisabled
	}
	return r.Client.Ping(ctx).Err()
}
