package cachesvc

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/trezcool/elimu/core"
)

type memoryCache struct {
	items *ttlcache.Cache[string, []byte]
}

var _ core.Cache = (*memoryCache)(nil)

// NewMemoryCache is a process-local cache used in tests and when no redis address is configured.
func NewMemoryCache() *memoryCache {
	return &memoryCache{
		items: ttlcache.New[string, []byte](
			ttlcache.WithDisableTouchOnHit[string, []byte](),
		),
	}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	item := c.items.Get(key)
	if item == nil {
		return nil, core.ErrCacheMiss
	}
	return append([]byte(nil), item.Value()...), nil
}

// Set stores val for ttl; a ttl <= 0 never expires.
func (c *memoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = ttlcache.NoTTL
	}
	c.items.DeleteExpired()
	c.items.Set(key, append([]byte(nil), val...), ttl)
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		c.items.Delete(k)
	}
	return nil
}
