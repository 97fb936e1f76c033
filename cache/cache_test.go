package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock drives the cache's injected now func.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// memStore is an in-memory SecondaryStore.
type memStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, nil
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *memStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.data {
		if containsPattern(k, pattern) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (s *memStore) Close() error { return nil }

// failStore fails every operation.
type failStore struct{}

var errStoreDown = errors.New("store down")

func (failStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, errStoreDown }
func (failStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errStoreDown
}
func (failStore) Delete(ctx context.Context, key string) error { return errStoreDown }
func (failStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	return nil, errStoreDown
}
func (failStore) Close() error { return nil }

func TestNew(t *testing.T) {
	t.Run("valid ttl", func(t *testing.T) {
		c, err := New[string](time.Minute)
		require.NoError(t, err)
		assert.NotNil(t, c)
	})

	t.Run("zero ttl", func(t *testing.T) {
		_, err := New[string](0)
		assert.Equal(t, ErrInvalidTTL, err)
	})

	t.Run("negative ttl", func(t *testing.T) {
		_, err := New[string](-time.Second)
		assert.Equal(t, ErrInvalidTTL, err)
	})

	t.Run("nil secondary store", func(t *testing.T) {
		_, err := New(time.Minute, WithSecondary[string](nil, ord.String))
		assert.Equal(t, ErrStoreRequired, err)
	})

	t.Run("nil serializer", func(t *testing.T) {
		_, err := New(time.Minute, WithSecondary[string](newMemStore(), nil))
		assert.Equal(t, ErrSerializerRequired, err)
	})
}

func TestCache_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := New[string](time.Minute)
	require.NoError(t, err)

	c.Set(ctx, "k", "value")
	got, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "value", got)

	_, ok = c.Get(ctx, "absent")
	assert.False(t, ok)
}

func TestCache_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	c, err := New[string](5 * time.Second)
	require.NoError(t, err)
	c.now = clock.Now

	c.Set(ctx, "k", "value")
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	clock.Advance(6 * time.Second)

	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	// expired entry was removed lazily
	assert.Equal(t, 0, c.Stats().Size)
}

func TestCache_Eviction(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	c, err := New(time.Hour, WithMaxItems[string](10))
	require.NoError(t, err)
	c.now = clock.Now

	for i := 0; i < 10; i++ {
		c.Set(ctx, fmt.Sprintf("k%02d", i), "v")
		clock.Advance(time.Second)
	}
	assert.Equal(t, 10, c.Stats().Size)

	// 20% of capacity evicted before the new entry lands
	c.Set(ctx, "k10", "v")
	assert.Equal(t, 9, c.Stats().Size)

	_, ok := c.Get(ctx, "k00")
	assert.False(t, ok, "oldest entry should be evicted")
	_, ok = c.Get(ctx, "k01")
	assert.False(t, ok, "second-oldest entry should be evicted")
	_, ok = c.Get(ctx, "k02")
	assert.True(t, ok)
	_, ok = c.Get(ctx, "k10")
	assert.True(t, ok)
}

func TestCache_CleanupRateLimit(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()

	c, err := New(5*time.Second, WithCleanupInterval[string](60*time.Second))
	require.NoError(t, err)
	c.now = clock.Now

	c.Set(ctx, "a", "v")
	c.Set(ctx, "b", "v")

	clock.Advance(10 * time.Second)

	removed := c.Cleanup(ctx)
	assert.Equal(t, 2, removed)

	// second sweep within the interval is a no-op
	c.Set(ctx, "c", "v")
	clock.Advance(10 * time.Second)
	assert.Equal(t, 0, c.Cleanup(ctx))
	assert.Equal(t, 1, c.Stats().Size)

	// after the interval the sweep runs again
	clock.Advance(60 * time.Second)
	assert.Equal(t, 1, c.Cleanup(ctx))
}

func TestCache_Invalidate(t *testing.T) {
	ctx := context.Background()
	c, err := New[string](time.Minute)
	require.NoError(t, err)

	c.Set(ctx, "k", "v")
	c.Invalidate(ctx, "k")
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCache_InvalidatePattern(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	c, err := New(time.Minute, WithSecondary[string](store, ord.String))
	require.NoError(t, err)

	c.Set(ctx, "thread_record:1", "a")
	c.Set(ctx, "thread_stats:1", "b")
	c.Set(ctx, "thread_record:2", "c")

	// both tiers hold every entry, so each removal counts twice
	removed := c.InvalidatePattern(ctx, ":1")
	assert.Equal(t, 4, removed)

	_, ok := c.Get(ctx, "thread_record:1")
	assert.False(t, ok)
	_, ok = c.Get(ctx, "thread_record:2")
	assert.True(t, ok)
}

func TestCache_SecondaryTier(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	first, err := New(time.Minute, WithSecondary[string](store, ord.String))
	require.NoError(t, err)
	first.Set(ctx, "k", "value")

	// a fresh cache over the same store misses primary and hits secondary
	second, err := New(time.Minute, WithSecondary[string](store, ord.String))
	require.NoError(t, err)

	got, ok := second.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	stats := second.Stats()
	assert.Equal(t, uint64(1), stats.SecondaryHits)

	// the hit was repopulated into the primary tier
	got, ok = second.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "value", got)
	assert.Equal(t, uint64(1), second.Stats().MemoryHits)
}

func TestCache_SecondaryFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	c, err := New(time.Minute, WithSecondary[string](failStore{}, ord.String))
	require.NoError(t, err)

	// writes and reads keep working on the primary tier alone
	c.Set(ctx, "k", "value")
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "value", got)

	_, ok = c.Get(ctx, "absent")
	assert.False(t, ok)

	c.Invalidate(ctx, "k")
	assert.Equal(t, 0, c.InvalidatePattern(ctx, "k"))
}

func TestCache_Stats(t *testing.T) {
	ctx := context.Background()
	c, err := New(time.Minute, WithMaxItems[string](100))
	require.NoError(t, err)

	c.Set(ctx, "a", "v")
	c.Get(ctx, "a")
	c.Get(ctx, "a")
	c.Get(ctx, "missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.Equal(t, 100, stats.MaxItems)
	assert.Equal(t, uint64(2), stats.MemoryHits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Sets)
	assert.InDelta(t, 66.6, stats.HitRatePct, 0.1)
	assert.InDelta(t, 1.0, stats.UsagePct, 0.01)
	assert.False(t, stats.SecondaryEnabled)
	assert.Equal(t, time.Minute, stats.TTL)
}

func TestCache_StartCleanup(t *testing.T) {
	ctx := context.Background()
	c, err := New(time.Millisecond, WithCleanupInterval[string](time.Millisecond))
	require.NoError(t, err)

	c.Set(ctx, "k", "v")
	c.StartCleanup(5 * time.Millisecond)

	assert.Eventually(t, func() bool {
		return c.Stats().Size == 0
	}, time.Second, 5*time.Millisecond)

	c.Close()
	c.Close() // idempotent
}
