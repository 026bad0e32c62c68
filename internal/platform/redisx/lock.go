package redisx

import (
	"context"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only while it still holds the caller's token, so a
// holder whose ttl lapsed cannot remove the lock of the next one.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker hands out short-lived exclusive keys. A nil client always grants the lock.
type Locker struct {
	rdb    *goredis.Client
	prefix string
}

func NewLocker(rdb *goredis.Client, prefix string) *Locker {
	return &Locker{rdb: rdb, prefix: prefix}
}

// Acquire returns ok=false when another holder owns name and its ttl has not elapsed.
// The token must be handed back to Release.
func (l *Locker) Acquire(ctx context.Context, name string, ttl time.Duration) (string, bool, error) {
	if l == nil || l.rdb == nil {
		return "", true, nil
	}
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key(l.prefix, "lock", name), token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

// Release is a no-op when the lock already expired or belongs to someone else.
func (l *Locker) Release(ctx context.Context, name, token string) error {
	if l == nil || l.rdb == nil || token == "" {
		return nil
	}
	return releaseScript.Run(ctx, l.rdb, []string{key(l.prefix, "lock", name)}, token).Err()
}
