package cache

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc loads the authoritative value for a key. A nil value with a nil error means
// the value does not exist; such results are returned but never cached.
type ComputeFunc func(ctx context.Context) ([]byte, error)

// ReadThrough implements get-or-compute over a Cache. Concurrent misses for the same key
// share a single compute. Keys whose entries can change must be dropped through
// ReadThrough.Invalidate so a compute that read the old value does not store it afterwards.
type ReadThrough struct {
	cache Cache
	group singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight tracks the computes running for one key. gen moves on every Invalidate.
type flight struct {
	gen  uint64
	refs int
}

// NewReadThrough returns a ReadThrough over c.
func NewReadThrough(c Cache) *ReadThrough {
	return &ReadThrough{cache: c, flights: make(map[string]*flight)}
}

// Cache returns the underlying cache.
func (r *ReadThrough) Cache() Cache {
	return r.cache
}

// Remember returns the cached value for key, or runs compute, caches a non-nil result for
// ttl and returns it. A result is not cached when key was invalidated while compute ran.
// Cache failures are logged and fall back to compute.
func (r *ReadThrough) Remember(ctx context.Context, key string, ttl time.Duration, compute ComputeFunc) ([]byte, error) {
	v, ok, err := r.cache.Get(ctx, key)
	if err != nil {
		log.Printf("cache: get %s failed: %v", key, err)
	} else if ok {
		return v, nil
	}
	res, err, _ := r.group.Do(key, func() (any, error) {
		f, start := r.begin(key)
		val, err := compute(ctx)
		r.finish(ctx, key, f, start, val, err, ttl)
		return val, err
	})
	if err != nil {
		return nil, err
	}
	b, _ := res.([]byte)
	return b, nil
}

// Invalidate removes key and marks every compute in progress for it as stale.
func (r *ReadThrough) Invalidate(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.flights[key]; ok {
		f.gen++
	}
	r.group.Forget(key)
	return r.cache.Invalidate(ctx, key)
}

func (r *ReadThrough) begin(key string) (*flight, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.flights[key]
	if !ok {
		f = &flight{}
		r.flights[key] = f
	}
	f.refs++
	return f, f.gen
}

// finish stores val unless compute failed, found nothing, or key was invalidated since begin.
// The check and the Set share r.mu with Invalidate.
func (r *ReadThrough) finish(ctx context.Context, key string, f *flight, start uint64, val []byte, err error, ttl time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil && val != nil && f.gen == start {
		if err := r.cache.Set(ctx, key, val, ttl); err != nil {
			log.Printf("cache: set %s failed: %v", key, err)
		}
	}
	f.refs--
	if f.refs == 0 {
		delete(r.flights, key)
	}
}
