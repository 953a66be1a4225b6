package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryCache is an in-process Cache backed by ttlcache. Entries expire a fixed ttl after
// they were set; reads do not extend them.
type MemoryCache struct {
	c *ttlcache.Cache[string, []byte]
}

// NewMemoryCache returns a started MemoryCache. capacity <= 0 means unbounded.
// Call Close to stop the expiry loop.
func NewMemoryCache(capacity uint64) *MemoryCache {
	opts := []ttlcache.Option[string, []byte]{
		ttlcache.WithDisableTouchOnHit[string, []byte](),
	}
	if capacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](capacity))
	}
	c := ttlcache.New[string, []byte](opts...)
	go c.Start()
	return &MemoryCache{c: c}
}

// Get returns a copy of the stored value.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	item := m.c.Get(key)
	if item == nil {
		return nil, false, nil
	}
	v := item.Value()
	out := make([]byte, len(v))
	copy(out, v)
	return out, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	m.c.Set(key, v, ttl)
	return nil
}

func (m *MemoryCache) Has(_ context.Context, key string) (bool, error) {
	return m.c.Has(key), nil
}

func (m *MemoryCache) Invalidate(_ context.Context, key string) error {
	m.c.Delete(key)
	return nil
}

func (m *MemoryCache) Take(_ context.Context, key string) ([]byte, bool, error) {
	item, ok := m.c.GetAndDelete(key)
	if !ok || item == nil {
		return nil, false, nil
	}
	return item.Value(), true, nil
}

// Len returns the number of live entries.
func (m *MemoryCache) Len() int {
	return m.c.Len()
}

// Close stops the background expiry loop.
func (m *MemoryCache) Close() {
	m.c.Stop()
}
