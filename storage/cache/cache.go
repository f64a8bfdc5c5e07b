// Package cache is a Redis cache that turns itself off after the first Redis failure.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trezcool/freetime/core"
)

// KeyPrefix namespaces every key written by the application.
const KeyPrefix = "freetime:cache:"

// Cache stores JSON values in Redis. A disabled Cache misses every Get and drops every Set.
type Cache struct {
	client *redis.Client
	logger core.Logger

	mu       sync.RWMutex
	disabled bool // circuit breaker state
}

// New connects to Redis. When Redis cannot be reached, or caching is disabled in conf,
// it returns a disabled Cache instead of an error.
func New(conf core.CacheConfig, logger core.Logger) *Cache {
	if conf.Disabled {
		return &Cache{logger: logger, disabled: true}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         conf.RedisAddr,
		Password:     conf.RedisPassword,
		DB:           conf.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("cache.New: redis unavailable, running without cache", err)
		_ = client.Close()
		return &Cache{logger: logger, disabled: true}
	}

	logger.Info("cache.New: redis cache initialized", map[string]interface{}{"addr": conf.RedisAddr})
	return &Cache{client: client, logger: logger}
}

func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable reports whether the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.mu.Lock()
	wasDisabled := c.disabled
	c.disabled = true
	c.mu.Unlock()

	if !wasDisabled {
		c.logger.Warn("cache: disabling cache after redis error", err, map[string]interface{}{"operation": operation})
	}
}

// Get decodes the value stored at key into dst and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) bool {
	if !c.IsAvailable() {
		return false
	}

	data, err := c.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		c.handleError(err, "get")
		return false
	}
	if err = json.Unmarshal(data, dst); err != nil {
		c.logger.Debug("cache.Get: undecodable value", err, map[string]interface{}{"key": key})
		return false
	}
	return true
}

// Set stores value at key for ttl. Failures only disable the cache.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.IsAvailable() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("cache.Set: marshalling value", err, map[string]interface{}{"key": key})
		return
	}
	if err = c.client.Set(ctx, KeyPrefix+key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
	}
}

// Delete removes the keys matching pattern (relative to KeyPrefix).
func (c *Cache) Delete(ctx context.Context, pattern string) {
	if !c.IsAvailable() {
		return
	}

	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, KeyPrefix+pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return
		}
		if len(keys) > 0 {
			if err = c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete")
				return
			}
		}
		if cursor = next; cursor == 0 {
			return
		}
	}
}
