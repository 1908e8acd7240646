// Package redis implements the optional cache layer. The whole layer is
// best-effort: when Redis is not configured or unreachable the rest of
// the system runs uncached rather than failing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/focusarena/focusarena/config"
)

// Cache wraps a Redis client with JSON helpers. Backend failures on reads
// surface as misses so callers fall through to storage.
type Cache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewCache connects to Redis and verifies the connection with a ping.
func NewCache(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: failed to parse URL: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping: %w", err)
	}

	return &Cache{client: client, logger: logger}, nil
}

// Client exposes the underlying client for the pub/sub bridge.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Ping checks connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// GetJSON reads and unmarshals a key. A missing key or a backend error
// both report a miss; errors are logged, not propagated.
func (c *Cache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("cache read failed", slog.String("key", key), slog.Any("error", err))
		}
		return false, nil
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// A corrupt entry is dropped and treated as a miss.
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}

	return true, nil
}

// SetJSON marshals and stores a value with a TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis: marshal %s: %w", key, err)
	}

	return c.client.Set(ctx, key, raw, ttl).Err()
}

// Delete removes keys. Missing keys are not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}
