package tmdb

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// ConfigCache holds the provider configuration once it has been fetched successfully.
// Concurrent first callers share a single fetch. Failed fetches are not cached.
type ConfigCache struct {
	fetch func(ctx context.Context) (*Configuration, error)
	group singleflight.Group

	mu    sync.RWMutex
	value *Configuration
}

// NewConfigCache creates a cache backed by fetch.
func NewConfigCache(fetch func(ctx context.Context) (*Configuration, error)) *ConfigCache {
	return &ConfigCache{fetch: fetch}
}

// Get returns the cached configuration or fetches it.
func (c *ConfigCache) Get(ctx context.Context) (*Configuration, error) {
	if cfg := c.cached(); cfg != nil {
		return cfg, nil
	}

	v, err, _ := c.group.Do("configuration", func() (any, error) {
		if cfg := c.cached(); cfg != nil {
			return cfg, nil
		}
		cfg, err := c.fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.value = cfg
		c.mu.Unlock()
		return cfg, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Configuration), nil
}

// Invalidate forgets the cached configuration so the next Get fetches again.
func (c *ConfigCache) Invalidate() {
	c.mu.Lock()
	c.value = nil
	c.mu.Unlock()
}

func (c *ConfigCache) cached() *Configuration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}
