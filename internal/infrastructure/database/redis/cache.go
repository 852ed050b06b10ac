package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/reubenai/dealsense/internal/infrastructure/monitoring/logging"
	appErrors "github.com/reubenai/dealsense/pkg/errors"
)

// Cache is a byte-oriented cache over Redis. A miss is reported as a
// nil slice with a nil error so callers can treat absence as a normal
// outcome rather than an error path.
type Cache struct {
	client     *Client
	logger     logging.Logger
	prefix     string
	defaultTTL time.Duration
	group      singleflight.Group
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithPrefix sets the key namespace prepended to every key.
func WithPrefix(prefix string) CacheOption {
	return func(c *Cache) { c.prefix = prefix }
}

// WithDefaultTTL sets the TTL applied when Set is called with ttl <= 0.
func WithDefaultTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.defaultTTL = ttl }
}

// NewCache builds a Cache over the given client. The prefix and
// default TTL come from the client configuration unless overridden.
func NewCache(client *Client, logger logging.Logger, opts ...CacheOption) *Cache {
	c := &Cache{
		client:     client,
		logger:     logger,
		prefix:     client.cfg.KeyPrefix,
		defaultTTL: client.cfg.DefaultTTL,
	}
	if c.prefix == "" {
		c.prefix = "dealsense:"
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache) fullKey(key string) string {
	return c.prefix + key
}

// Get returns the cached value for key, or (nil, nil) when the key is
// absent.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	rdb, err := c.client.Raw()
	if err != nil {
		return nil, err
	}
	raw, err := rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeCacheError, "cache get failed")
	}
	return raw, nil
}

// Set stores value under key for ttl. A non-positive ttl falls back to
// the cache default.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	rdb, err := c.client.Raw()
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	if err := rdb.Set(ctx, c.fullKey(key), value, ttl).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "cache set failed")
	}
	return nil
}

// Delete removes the given keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	rdb, err := c.client.Raw()
	if err != nil {
		return err
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.fullKey(k)
	}
	if err := rdb.Del(ctx, full...).Err(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeCacheError, "cache delete failed")
	}
	return nil
}

// GetOrSet returns the cached value for key, invoking loader on a miss
// and caching its result. Concurrent misses for the same key share a
// single loader call.
func (c *Cache) GetOrSet(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if raw, err := c.Get(ctx, key); err != nil || raw != nil {
		return raw, err
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Re-check after acquiring the flight: another caller may have
		// populated the key while this one waited.
		if raw, err := c.Get(ctx, key); err != nil || raw != nil {
			return raw, err
		}
		raw, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, raw, ttl); err != nil {
			c.logger.Warn("Failed to populate cache after load",
				logging.String("key", key),
				logging.Err(err),
			)
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	raw, _ := v.([]byte)
	return raw, nil
}
