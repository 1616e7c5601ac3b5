package retrieval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/koukiniwa/ai-kouki-backend/internal/store"
)

// DefaultTTL is how long a snapshot is served before the store is asked again.
const DefaultTTL = 600 * time.Second

// Lister is the one capability the cache needs from a document store.
type Lister interface {
	ListAll(ctx context.Context) ([]store.Record, error)
}

// Cache holds the latest corpus snapshot and refreshes it lazily, in-line,
// on the first call after the TTL has elapsed.
//
// A failed refresh keeps the previous snapshot and leaves fetchedAt alone,
// so the next call tries again immediately.
type Cache struct {
	lister Lister
	ttl    time.Duration
	now    func() time.Time
	log    *slog.Logger

	mu        sync.RWMutex
	docs      []Document
	fetchedAt time.Time

	flight singleflight.Group
}

// CacheOption customizes a Cache.
type CacheOption func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger used for refresh events.
func WithLogger(l *slog.Logger) CacheOption {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

func NewCache(l Lister, opts ...CacheOption) *Cache {
	c := &Cache{
		lister: l,
		ttl:    DefaultTTL,
		now:    time.Now,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAll returns the current snapshot, refreshing it first when it is stale.
// On refresh failure it returns the previous snapshot (possibly empty)
// together with the error. The returned slice is shared and must not be
// modified.
func (c *Cache) GetAll(ctx context.Context) ([]Document, error) {
	if docs, ok := c.fresh(); ok {
		metricCacheHits.Inc()
		return docs, nil
	}
	v, err, _ := c.flight.Do("refresh", func() (any, error) {
		if docs, ok := c.fresh(); ok {
			return docs, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		docs, _ := c.snapshot()
		return docs, err
	}
	return v.([]Document), nil
}

// FetchedAt reports when the current snapshot was taken; zero if never.
func (c *Cache) FetchedAt() time.Time {
	_, at := c.snapshot()
	return at
}

func (c *Cache) snapshot() ([]Document, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.docs, c.fetchedAt
}

func (c *Cache) fresh() ([]Document, bool) {
	docs, at := c.snapshot()
	if at.IsZero() {
		return nil, false
	}
	return docs, c.now().Sub(at) < c.ttl
}

func (c *Cache) refresh(ctx context.Context) ([]Document, error) {
	recs, err := c.lister.ListAll(ctx)
	if err != nil {
		metricCacheRefreshFailures.Inc()
		return nil, fmt.Errorf("refresh documents: %w", err)
	}
	docs := FromRecords(recs)

	c.mu.Lock()
	c.docs = docs
	c.fetchedAt = c.now()
	c.mu.Unlock()

	metricCacheRefreshes.Inc()
	metricCacheDocuments.Set(float64(len(docs)))
	c.log.Debug("document snapshot refreshed", "documents", len(docs))
	return docs, nil
}
