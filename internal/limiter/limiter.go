package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the counter and starts the window on the
// first hit, atomically.
var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
	return 0
end
return 1
`)

// FixedWindow allows at most Limit hits per key in each Window.
type FixedWindow struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

// NewFixedWindow creates a limiter. A limit <= 0 disables limiting.
func NewFixedWindow(rdb *redis.Client, prefix string, limit int, window time.Duration) *FixedWindow {
	return &FixedWindow{rdb: rdb, prefix: prefix, limit: limit, window: window}
}

// Allow records one hit for key and reports whether it is within the limit.
func (l *FixedWindow) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.rdb == nil || l.limit <= 0 {
		return true, nil
	}
	seconds := int(l.window.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	result, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.limit, seconds).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}
