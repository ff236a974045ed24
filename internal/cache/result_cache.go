package cache

import (
	"context"
	"time"

	"github.com/strategen/strategen/internal/generation"
)

// ResultCache deduplicates identical generation requests by fingerprint.
// Implementations are fail-open: a store error on Get is a miss, a store
// error on Put is dropped. Callers never see cache failures.
type ResultCache interface {
	Get(ctx context.Context, fingerprint string) (generation.Document, bool)
	Put(ctx context.Context, fingerprint string, doc generation.Document, ttl time.Duration)
	Flush(ctx context.Context)
}

// Disabled is the no-op cache used when caching is turned off: every probe
// misses and every store is dropped, leaving the rest of the pipeline
// unchanged.
type Disabled struct{}

func NewDisabled() Disabled { return Disabled{} }

func (Disabled) Get(context.Context, string) (generation.Document, bool) { return nil, false }

func (Disabled) Put(context.Context, string, generation.Document, time.Duration) {}

func (Disabled) Flush(context.Context) {}

type memoryCache struct {
	entries Cache[string, generation.Document]
}

// NewMemory returns the in-process result cache.
func NewMemory() ResultCache {
	return &memoryCache{entries: NewTTLCache[string, generation.Document]()}
}

func newMemoryWithNow(now func() time.Time) ResultCache {
	return &memoryCache{entries: newTTLCache[string, generation.Document](now)}
}

func (c *memoryCache) Get(_ context.Context, fingerprint string) (generation.Document, bool) {
	if fingerprint == "" {
		return nil, false
	}
	return c.entries.Get(fingerprint)
}

func (c *memoryCache) Put(_ context.Context, fingerprint string, doc generation.Document, ttl time.Duration) {
	if fingerprint == "" || doc == nil {
		return
	}
	c.entries.Set(fingerprint, doc, ttl)
}

func (c *memoryCache) Flush(context.Context) {
	c.entries.Flush()
}
