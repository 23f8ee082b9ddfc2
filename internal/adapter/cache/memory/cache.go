package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"todolist/internal/core/port"
)

type Cache struct {
	store *gocache.Cache
}

func New(defaultTTL, cleanupInterval time.Duration) *Cache {
	return &Cache{store: gocache.New(defaultTTL, cleanupInterval)}
}

func (c *Cache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.store.Set(key, value, ttl)
	return nil
}

func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	value, found := c.store.Get(key)

	if !found {
		return nil, port.ErrCacheMiss
	}

	return value.([]byte), nil
}

func (c *Cache) Delete(_ context.Context, key string) error {
	c.store.Delete(key)
	return nil
}

func (c *Cache) Close() error {
	c.store.Flush()
	return nil
}

func (c *Cache) ItemCount() int {
	return c.store.ItemCount()
}
