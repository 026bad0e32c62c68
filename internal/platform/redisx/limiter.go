package redisx

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter keyed by caller. Redis errors and a nil
// client let the request through.
type Limiter struct {
	rdb    *goredis.Client
	prefix string
}

func NewLimiter(rdb *goredis.Client, prefix string) *Limiter {
	return &Limiter{rdb: rdb, prefix: prefix}
}

func (l *Limiter) Enabled() bool { return l != nil && l.rdb != nil }

// Allow counts one hit for (bucket, caller). When the limit is exceeded it returns false and
// the time left in the window.
func (l *Limiter) Allow(ctx context.Context, bucket, caller string, limit int, window time.Duration) (bool, time.Duration, error) {
	if !l.Enabled() || limit <= 0 {
		return true, 0, nil
	}
	k := key(l.prefix, "rate_limit", bucket, caller)

	// INCR and EXPIRE NX go out as one MULTI so a counter never outlives its window.
	var incr *goredis.IntCmd
	if _, err := l.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		pipe.ExpireNX(ctx, k, window)
		return nil
	}); err != nil {
		return true, 0, err
	}
	if incr.Val() <= int64(limit) {
		return true, 0, nil
	}

	ttl, err := l.rdb.TTL(ctx, k).Result()
	if err != nil {
		return false, window, nil
	}
	retry, heal := retryAfter(ttl, window)
	if heal {
		// Counters written before the window was set atomically may carry no ttl.
		if err := l.rdb.Expire(ctx, k, window).Err(); err != nil {
			return false, retry, err
		}
	}
	return false, retry, nil
}

// retryAfter turns a TTL reply into a Retry-After value and reports whether the key has
// no expiry and must be given one.
func retryAfter(ttl, window time.Duration) (time.Duration, bool) {
	switch {
	case ttl == -1:
		return window, true
	case ttl <= 0:
		return window, false
	case ttl > window:
		return window, false
	default:
		return ttl, false
	}
}
