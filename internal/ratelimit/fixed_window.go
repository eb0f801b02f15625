// Package ratelimit implements distributed fixed-window admission control on
// top of the cache layer. It inherits the cache's fail-open contract: when
// redis is unreachable every check admits, trading strict enforcement for
// availability.
package ratelimit

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tenantd/internal/cache"
	"go.uber.org/zap"
)

// Class is one admission category with its own window, limit and key prefix.
type Class struct {
	Name    string
	Prefix  string
	Window  time.Duration
	Limit   int
	Message string
}

var (
	ClassAuth = Class{
		Name:    "auth",
		Prefix:  "rl:auth:",
		Window:  15 * time.Minute,
		Limit:   10,
		Message: "Too many login attempts, please try again later",
	}
	ClassCreate = Class{
		Name:    "create",
		Prefix:  "rl:create:",
		Window:  time.Hour,
		Limit:   5,
		Message: "Too many organizations created, please try again later",
	}
	ClassRead = Class{
		Name:    "read",
		Prefix:  "rl:read:",
		Window:  15 * time.Minute,
		Limit:   200,
		Message: "Too many requests, please try again later",
	}
	ClassGeneral = Class{
		Name:    "general",
		Prefix:  "rl:general:",
		Window:  15 * time.Minute,
		Limit:   100,
		Message: "Too many requests, please try again later",
	}
)

// incrWindowScript increments the window counter and assigns its expiry as
// one atomic step. Splitting them would let a racing request reset the window
// and leak the counter past the limit.
const incrWindowScript = `
local count = redis.call("INCR", KEYS[1])
local ttl = redis.call("TTL", KEYS[1])
if count == 1 or ttl < 0 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return count
`

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter runs fixed-window checks against redis through the cache layer.
type Limiter struct {
	cache  *cache.Cache
	script *redis.Script
	log    *zap.Logger
}

func NewLimiter(c *cache.Cache, log *zap.Logger) *Limiter {
	return &Limiter{
		cache:  c,
		script: redis.NewScript(incrWindowScript),
		log:    log,
	}
}

// Check admits or rejects one request for the given class and client
// identity. Any cache-layer unavailability admits unconditionally.
func (l *Limiter) Check(ctx context.Context, class Class, clientKey string) Decision {
	admit := Decision{Allowed: true, Limit: class.Limit, Remaining: class.Limit}
	if !l.cache.Healthy() {
		return admit
	}

	key := class.Prefix + clientKey
	client := l.cache.Client()

	count, err := client.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		l.log.Warn("rate limiter read failed, admitting", zap.String("class", class.Name), zap.Error(err))
		return admit
	}

	if count >= class.Limit {
		retryAfter := class.Window
		if ttl, err := client.TTL(ctx, key).Result(); err == nil && ttl > 0 {
			retryAfter = ttl
		}
		return Decision{
			Allowed:    false,
			Limit:      class.Limit,
			Remaining:  0,
			RetryAfter: retryAfter,
		}
	}

	current, err := l.script.Run(ctx, client, []string{key}, int(class.Window.Seconds())).Int()
	if err != nil {
		l.log.Warn("rate limiter increment failed, admitting", zap.String("class", class.Name), zap.Error(err))
		return admit
	}

	remaining := class.Limit - current
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   true,
		Limit:     class.Limit,
		Remaining: remaining,
	}
}
