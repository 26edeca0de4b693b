// Package cache is a small read-through cache with stale-while-revalidate.
package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Options struct {
	TTL time.Duration
	// StaleWhileRevalidate serves an expired value for this long while one
	// background load refreshes it.
	StaleWhileRevalidate time.Duration
	// RefreshTimeout bounds background loads.
	RefreshTimeout time.Duration
}

type Hooks struct {
	OnHit   func(key string)
	OnMiss  func(key string)
	OnStale func(key string)
	OnError func(key string)
}

type entry[V any] struct {
	value     V
	expiresAt time.Time
	staleAt   time.Time
}

type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]entry[V]
	opts  Options
	hooks Hooks
	sf    singleflight.Group
	now   func() time.Time
}

// Loader fetches the value for key. Errors are never cached.
type Loader[V any] func(ctx context.Context, key string) (V, error)

func New[V any](opts Options, hooks Hooks) *Cache[V] {
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = 10 * time.Second
	}
	return &Cache[V]{
		items: make(map[string]entry[V]),
		opts:  opts,
		hooks: hooks,
		now:   time.Now,
	}
}

// Get returns the cached value for key, loading it when absent or past its
// stale window. Concurrent loads for one key are collapsed.
func (c *Cache[V]) Get(ctx context.Context, key string, loader Loader[V]) (V, error) {
	now := c.now()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if ok && now.Before(e.expiresAt) {
		fire(c.hooks.OnHit, key)
		return e.value, nil
	}
	if ok && now.Before(e.staleAt) {
		fire(c.hooks.OnStale, key)
		go c.refresh(context.WithoutCancel(ctx), key, loader)
		return e.value, nil
	}

	fire(c.hooks.OnMiss, key)
	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		return c.load(ctx, key, loader)
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return v.(V), nil
}

func (c *Cache[V]) refresh(ctx context.Context, key string, loader Loader[V]) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.RefreshTimeout)
	defer cancel()
	_, _, _ = c.sf.Do(key, func() (interface{}, error) {
		return c.load(ctx, key, loader)
	})
}

func (c *Cache[V]) load(ctx context.Context, key string, loader Loader[V]) (V, error) {
	v, err := loader(ctx, key)
	if err != nil {
		fire(c.hooks.OnError, key)
		return v, err
	}
	c.Set(key, v)
	return v, nil
}

// Set stores v for the configured TTL.
func (c *Cache[V]) Set(key string, v V) {
	now := c.now()
	expires := now.Add(c.opts.TTL)
	c.mu.Lock()
	c.items[key] = entry[V]{value: v, expiresAt: expires, staleAt: expires.Add(c.opts.StaleWhileRevalidate)}
	c.mu.Unlock()
}

// Peek returns a value still inside its stale window without loading.
func (c *Cache[V]) Peek(key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || !c.now().Before(e.staleAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

func fire(hook func(string), key string) {
	if hook != nil {
		hook(key)
	}
}
