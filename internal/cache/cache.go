// Package cache is the best-effort look-aside cache in front of the metadata
// store. It owns the process-wide redis connectivity state and degrades to a
// silent no-op whenever redis is unreachable; callers must never fail solely
// because the cache is down.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/tenantd/internal/config"
	"go.uber.org/zap"
)

// State is the connectivity state machine:
// uninitialized -> connecting -> connected <-> disconnected.
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateConnected
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Lookup is the three-way result of a cache read. Unavailable means the cache
// layer itself was down, which callers treat like a miss but must never
// confuse with "the key is known to be absent."
type Lookup int

const (
	Miss Lookup = iota
	Hit
	Unavailable
)

// Store is the surface consumers depend on; *Cache implements it and tests
// substitute fakes.
type Store interface {
	Get(ctx context.Context, key string, dest any) Lookup
	Set(ctx context.Context, key string, value any, ttl time.Duration) bool
	Delete(ctx context.Context, key string) bool
	DeletePrefix(ctx context.Context, prefix string) bool
	Healthy() bool
}

// OrgKey returns the cache key for a tenant projection.
func OrgKey(organizationName string) string {
	return "org:" + strings.ToLower(organizationName)
}

// Cache wraps a single redis client with explicit connectivity tracking.
type Cache struct {
	addr           string
	password       string
	db             int
	connectTimeout time.Duration

	client *redis.Client
	state  atomic.Int32
	once   sync.Once
	log    *zap.Logger
}

func New(cfg config.Config, log *zap.Logger) *Cache {
	return &Cache{
		addr:           cfg.RedisAddr,
		password:       cfg.RedisPassword,
		db:             cfg.RedisDB,
		connectTimeout: cfg.RedisConnectTimeout,
		log:            log,
	}
}

// Connect performs the single explicit connection attempt. An unconfigured
// address or a failed ping leaves the layer disconnected; any later recovery
// is the transport's concern and is observed through its OnConnect hook.
func (c *Cache) Connect(ctx context.Context) {
	c.once.Do(func() {
		if c.addr == "" {
			c.log.Info("redis not configured, running without cache")
			c.state.Store(int32(StateDisconnected))
			return
		}

		c.state.Store(int32(StateConnecting))
		c.client = redis.NewClient(&redis.Options{
			Addr:        c.addr,
			Password:    c.password,
			DB:          c.db,
			DialTimeout: c.connectTimeout,
			MaxRetries:  -1,
			OnConnect: func(ctx context.Context, cn *redis.Conn) error {
				_ = ctx
				_ = cn
				c.state.Store(int32(StateConnected))
				return nil
			},
		})

		pingCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
		if err := c.client.Ping(pingCtx).Err(); err != nil {
			c.log.Warn("redis unavailable, running without cache", zap.Error(err))
			c.state.Store(int32(StateDisconnected))
			return
		}

		c.state.Store(int32(StateConnected))
		c.log.Info("redis connected", zap.String("addr", c.addr))
	})
}

func (c *Cache) Close() error {
	if c.client == nil {
		return nil
	}
	c.state.Store(int32(StateDisconnected))
	return c.client.Close()
}

func (c *Cache) State() State {
	return State(c.state.Load())
}

func (c *Cache) Healthy() bool {
	return c.State() == StateConnected
}

// Client exposes the underlying connection to sibling components (rate
// limiter, locker) that share the fail-open contract. Callers must check
// Healthy first.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// markDisconnected records a connection-lost signal. The transport's
// OnConnect hook flips the state back if the connection recovers. A canceled
// or deadline-expired request context is the caller hanging up, not redis
// going away, and must not trip the flag: once unhealthy, no command is
// issued anymore, so OnConnect would never get the chance to flip it back.
func (c *Cache) markDisconnected(err error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return
	}
	if c.state.CompareAndSwap(int32(StateConnected), int32(StateDisconnected)) {
		c.log.Warn("redis connection lost", zap.Error(err))
	}
}

// Get loads key into dest. A disconnected cache reports Unavailable, never an
// error.
func (c *Cache) Get(ctx context.Context, key string, dest any) Lookup {
	if !c.Healthy() {
		return Unavailable
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Miss
		}
		c.markDisconnected(err)
		return Unavailable
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.log.Warn("cache entry not decodable, treating as miss", zap.String("key", key), zap.Error(err))
		return Miss
	}
	return Hit
}

// Set stores value under key with the given TTL. Returns false when the write
// was not performed.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if !c.Healthy() {
		return false
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("cache value not encodable", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		c.markDisconnected(err)
		return false
	}
	return true
}

func (c *Cache) Delete(ctx context.Context, key string) bool {
	if !c.Healthy() {
		return false
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.markDisconnected(err)
		return false
	}
	return true
}

// DeletePrefix removes every key under the given prefix, scanning instead of
// KEYS so a large keyspace does not stall redis.
func (c *Cache) DeletePrefix(ctx context.Context, prefix string) bool {
	if !c.Healthy() {
		return false
	}

	iter := c.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			c.markDisconnected(err)
			return false
		}
	}
	if err := iter.Err(); err != nil {
		c.markDisconnected(err)
		return false
	}
	return true
}

// Stats reports connectivity for the health endpoints.
type Stats struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Hits      uint32 `json:"pool_hits,omitempty"`
	Misses    uint32 `json:"pool_misses,omitempty"`
	TotalConns uint32 `json:"pool_total_conns,omitempty"`
}

func (c *Cache) Stats() Stats {
	stats := Stats{Status: c.State().String(), Connected: c.Healthy()}
	if c.client != nil && c.Healthy() {
		pool := c.client.PoolStats()
		stats.Hits = pool.Hits
		stats.Misses = pool.Misses
		stats.TotalConns = pool.TotalConns
	}
	return stats
}
