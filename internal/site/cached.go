package site

import (
	"context"
	"time"

	"github.com/georgestephanis/support-widget/pkg/cache"
)

const cacheKey = "options"

// CachedSource serves Options from memory, reloading from the wrapped source
// after ttl. An expired snapshot is served for up to ttl more while a single
// background reload runs.
type CachedSource struct {
	src   Source
	cache *cache.Cache[Options]
}

func NewCachedSource(src Source, ttl time.Duration, hooks cache.Hooks) *CachedSource {
	return &CachedSource{
		src: src,
		cache: cache.New[Options](cache.Options{
			TTL:                  ttl,
			StaleWhileRevalidate: ttl,
		}, hooks),
	}
}

func (s *CachedSource) Load(ctx context.Context) (Options, error) {
	return s.cache.Get(ctx, cacheKey, func(ctx context.Context, _ string) (Options, error) {
		return s.src.Load(ctx)
	})
}

// Invalidate drops the cached snapshot.
func (s *CachedSource) Invalidate() {
	s.cache.Delete(cacheKey)
}
