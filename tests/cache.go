package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// MemoryCache is an in-process stand-in for the Redis cache. Values are JSON encoded like in Redis and
// never expire. Delete patterns support a trailing "*" only.
type MemoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{values: make(map[string][]byte)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst interface{}) bool {
	c.mu.Lock()
	data, ok := c.values[key]
	c.mu.Unlock()
	return ok && json.Unmarshal(data, dst) == nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	c.mu.Lock()
	c.values[key] = data
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(_ context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !strings.HasSuffix(pattern, "*") {
		delete(c.values, pattern)
		return
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
		}
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}
