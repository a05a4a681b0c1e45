package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Actions limited per client IP.
const (
	ActionRegister = "register"
	ActionLogin    = "login"
)

// Limiter counts hits per key in fixed windows stored in Redis.
// A Limiter without a Redis client allows everything.
type Limiter struct {
	rdb    *redis.Client
	prefix string
}

func New(rdb *redis.Client) *Limiter {
	return &Limiter{rdb: rdb, prefix: "rate_limit"}
}

// Allow records one hit for action/key and reports whether the caller is
// still within limit for the current window. retryAfter is the remaining
// window time when the limit is exceeded.
func (l *Limiter) Allow(ctx context.Context, action, key string, limit int, window time.Duration) (allowed bool, retryAfter time.Duration, err error) {
	if l == nil || l.rdb == nil || limit <= 0 {
		return true, 0, nil
	}

	k := fmt.Sprintf("%s:%s:%s", l.prefix, action, key)

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	ttl := pipe.TTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	if incr.Val() > int64(limit) {
		wait := ttl.Val()
		if wait < 0 {
			wait = window
		}
		return false, wait, nil
	}
	return true, 0, nil
}

// Reset clears the counter for action/key.
func (l *Limiter) Reset(ctx context.Context, action, key string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, fmt.Sprintf("%s:%s:%s", l.prefix, action, key)).Err()
}
