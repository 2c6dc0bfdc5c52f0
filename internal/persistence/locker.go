package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/ticket-relay/internal/domain"
)

const lockTTL = 30 * time.Second

// RedisLocker serializes short critical sections across bot processes.
type RedisLocker struct {
	client *redislock.Client
	prefix string
}

// NewRedisLocker returns a locker backed by redislock.
func NewRedisLocker(client *redis.Client, prefix string) *RedisLocker {
	return &RedisLocker{client: redislock.New(client), prefix: prefix}
}

// Lock obtains key without waiting. A held lock yields domain.ErrTicketOpenInProgress.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, l.prefix+key, lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, domain.ErrTicketOpenInProgress
	}
	if err != nil {
		return nil, err
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
