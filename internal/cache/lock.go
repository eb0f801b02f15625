package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// Locker serializes multi-step tenant mutations best-effort. It shares the
// cache layer's fail-open contract: when redis is down every TryLock
// succeeds, restoring the unguarded behavior the caller already accepts.
type Locker struct {
	cache  *Cache
	script *redis.Script
}

func NewLocker(c *Cache) *Locker {
	return &Locker{
		cache:  c,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (l *Locker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l == nil || !l.cache.Healthy() {
		return "", true, nil
	}
	if key == "" {
		return "", false, errors.New("lock key is empty")
	}
	if ttl <= 0 {
		return "", false, errors.New("lock ttl must be positive")
	}

	token := uuid.NewString()
	ok, err := l.cache.Client().SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		l.cache.markDisconnected(err)
		return "", true, nil
	}
	return token, ok, nil
}

func (l *Locker) Release(ctx context.Context, key, token string) error {
	if l == nil || !l.cache.Healthy() {
		return nil
	}
	if key == "" || token == "" {
		return nil
	}
	return l.script.Run(ctx, l.cache.Client(), []string{key}, token).Err()
}
