package retrieval

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koukiniwa/ai-kouki-backend/internal/store"
)

type fakeLister struct {
	mu    sync.Mutex
	recs  []store.Record
	err   error
	calls atomic.Int32
}

func (f *fakeLister) ListAll(ctx context.Context) ([]store.Record, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.recs, nil
}

func (f *fakeLister) set(recs []store.Record, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recs, f.err = recs, err
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: time.Date(2025, 12, 24, 0, 0, 0, 0, time.UTC)} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCacheTTLBoundaries(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	lister := &fakeLister{recs: []store.Record{{ID: "1", Title: "first"}}}
	c := NewCache(lister, WithTTL(600*time.Second), WithClock(clock.Now))

	docs, err := c.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.EqualValues(t, 1, lister.calls.Load())

	lister.set([]store.Record{{ID: "2", Title: "second"}}, nil)

	clock.Advance(599 * time.Second)
	docs, err = c.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", docs[0].ID)
	assert.EqualValues(t, 1, lister.calls.Load(), "no store call inside the TTL")

	clock.Advance(2 * time.Second)
	docs, err = c.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2", docs[0].ID)
	assert.EqualValues(t, 2, lister.calls.Load(), "exactly one store call after the TTL")
}

func TestCacheSnapshotIsStableWithinTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	lister := &fakeLister{recs: []store.Record{{ID: "1"}, {ID: "2"}}}
	c := NewCache(lister, WithClock(clock.Now))

	first, err := c.GetAll(ctx)
	require.NoError(t, err)
	lister.set(nil, errors.New("store changed"))
	clock.Advance(time.Minute)
	second, err := c.GetAll(ctx)
	require.NoError(t, err)

	require.Len(t, second, 2)
	assert.Same(t, &first[0], &second[0])
	assert.Equal(t, clock.Now().Add(-time.Minute), c.FetchedAt())
}

func TestCacheKeepsStaleSnapshotOnFailure(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	lister := &fakeLister{recs: []store.Record{{ID: "1"}}}
	c := NewCache(lister, WithClock(clock.Now))

	_, err := c.GetAll(ctx)
	require.NoError(t, err)
	fetchedAt := c.FetchedAt()

	boom := errors.New("network down")
	lister.set(nil, boom)
	clock.Advance(DefaultTTL)

	docs, err := c.GetAll(ctx)
	require.ErrorIs(t, err, boom)
	require.Len(t, docs, 1, "stale snapshot must survive a failed refresh")
	assert.Equal(t, fetchedAt, c.FetchedAt())

	// fetchedAt did not move, so the very next call retries.
	lister.set([]store.Record{{ID: "1"}, {ID: "2"}}, nil)
	docs, err = c.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
	assert.EqualValues(t, 3, lister.calls.Load())
}

func TestCacheInitialFailureReturnsEmpty(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{err: errors.New("auth")}
	c := NewCache(lister)

	docs, err := c.GetAll(ctx)
	require.Error(t, err)
	assert.Empty(t, docs)
	assert.True(t, c.FetchedAt().IsZero())

	_, _ = c.GetAll(ctx)
	assert.EqualValues(t, 2, lister.calls.Load())
}

func TestCacheEmptyCorpusIsASnapshot(t *testing.T) {
	ctx := context.Background()
	lister := &fakeLister{}
	c := NewCache(lister)

	docs, err := c.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
	_, err = c.GetAll(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, lister.calls.Load())
}

type blockingLister struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
	calls   atomic.Int32
}

func (b *blockingLister) ListAll(ctx context.Context) ([]store.Record, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	<-b.release
	return []store.Record{{ID: "1"}}, nil
}

func TestCacheConcurrentRefreshIsShared(t *testing.T) {
	lister := &blockingLister{started: make(chan struct{}), release: make(chan struct{})}
	clock := newFakeClock()
	c := NewCache(lister, WithClock(clock.Now))

	const callers = 16
	var wg sync.WaitGroup
	results := make([][]Document, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			docs, err := c.GetAll(context.Background())
			assert.NoError(t, err)
			results[i] = docs
		}(i)
	}
	<-lister.started
	time.Sleep(20 * time.Millisecond)
	close(lister.release)
	wg.Wait()

	assert.EqualValues(t, 1, lister.calls.Load())
	for _, docs := range results {
		require.Len(t, docs, 1)
	}
}
