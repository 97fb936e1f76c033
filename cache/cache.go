package cache

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mus-format/mus-go"
)

const (
	defaultMaxItems        = 10000
	defaultCleanupInterval = 60 * time.Second

	// share of maxItems evicted when the primary tier is full
	evictionFraction = 0.2
)

type entry[V any] struct {
	data      V
	timestamp time.Time
}

// Cache is a two-tier TTL cache. The zero value is not usable; create
// instances with New. All methods are safe for concurrent use. The
// internal lock is never held across a secondary-store round trip, so one
// caller's slow secondary tier cannot stall another caller's primary hit.
type Cache[V any] struct {
	mu          sync.Mutex
	entries     map[string]entry[V]
	ttl         time.Duration
	maxItems    int
	interval    time.Duration
	lastCleanup time.Time

	secondary SecondaryStore
	ser       mus.Serializer[V]

	logger *slog.Logger
	now    func() time.Time

	memoryHits    uint64
	secondaryHits uint64
	misses        uint64
	sets          uint64
	invalidations uint64
	cleanups      uint64
	itemsCleaned  uint64

	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Cache.
type Option[V any] func(*Cache[V]) error

// WithMaxItems sets the primary tier capacity.
// Default is 10000; values below 1 are raised to 1.
func WithMaxItems[V any](n int) Option[V] {
	return func(c *Cache[V]) error {
		if n < 1 {
			n = 1
		}
		c.maxItems = n
		return nil
	}
}

// WithCleanupInterval sets the minimum spacing between cleanup sweeps.
// Default is 60 seconds.
func WithCleanupInterval[V any](interval time.Duration) Option[V] {
	return func(c *Cache[V]) error {
		if interval <= 0 {
			interval = defaultCleanupInterval
		}
		c.interval = interval
		return nil
	}
}

// WithSecondary attaches a secondary store tier. The serializer converts
// values to the byte representation stored in the secondary tier.
func WithSecondary[V any](store SecondaryStore, ser mus.Serializer[V]) Option[V] {
	return func(c *Cache[V]) error {
		if store == nil {
			return ErrStoreRequired
		}
		if ser == nil {
			return ErrSerializerRequired
		}
		c.secondary = store
		c.ser = ser
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(c *Cache[V]) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a cache whose entries expire ttl after insertion.
func New[V any](ttl time.Duration, opts ...Option[V]) (*Cache[V], error) {
	if ttl <= 0 {
		return nil, ErrInvalidTTL
	}

	c := &Cache[V]{
		entries:  make(map[string]entry[V]),
		ttl:      ttl,
		maxItems: defaultMaxItems,
		interval: defaultCleanupInterval,
		logger:   slog.Default(),
		now:      time.Now,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Get returns the value stored under key. Expired primary entries are
// removed lazily. On a primary miss the secondary tier is consulted and a
// hit there is copied back into the primary tier.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	c.mu.Lock()
	now := c.now()
	if e, ok := c.entries[key]; ok {
		if now.Sub(e.timestamp) < c.ttl {
			c.memoryHits++
			c.mu.Unlock()
			return e.data, true
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	if c.secondary != nil {
		data, err := c.secondary.Get(ctx, key)
		if err != nil {
			c.logger.Error("secondary cache read error", "key", key, "err", err)
		} else if data != nil {
			v, _, err := c.ser.Unmarshal(data)
			if err != nil {
				c.logger.Error("secondary cache decode error", "key", key, "err", err)
			} else {
				c.mu.Lock()
				c.secondaryHits++
				c.entries[key] = entry[V]{data: v, timestamp: c.now()}
				c.mu.Unlock()
				return v, true
			}
		}
	}

	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
	return zero, false
}

// Set stores value under key, evicting the oldest entries first when the
// primary tier is at capacity.
func (c *Cache[V]) Set(ctx context.Context, key string, value V) {
	c.mu.Lock()
	if len(c.entries) >= c.maxItems {
		c.evictOldestLocked()
	}
	c.entries[key] = entry[V]{data: value, timestamp: c.now()}
	c.sets++
	c.mu.Unlock()

	if c.secondary != nil {
		buf := make([]byte, c.ser.Size(value))
		c.ser.Marshal(value, buf)
		if err := c.secondary.Set(ctx, key, buf, c.ttl); err != nil {
			c.logger.Error("secondary cache write error", "key", key, "err", err)
		}
	}
}

// Invalidate removes the value stored under key from both tiers.
func (c *Cache[V]) Invalidate(ctx context.Context, key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.invalidations++
	c.mu.Unlock()

	if c.secondary != nil {
		if err := c.secondary.Delete(ctx, key); err != nil {
			c.logger.Error("secondary cache delete error", "key", key, "err", err)
		}
	}
}

// InvalidatePattern removes every entry whose key contains pattern as a
// substring and returns the number of entries removed across both tiers.
func (c *Cache[V]) InvalidatePattern(ctx context.Context, pattern string) int {
	count := 0

	c.mu.Lock()
	for key := range c.entries {
		if containsPattern(key, pattern) {
			delete(c.entries, key)
			count++
		}
	}
	c.mu.Unlock()

	if c.secondary != nil {
		keys, err := c.secondary.Keys(ctx, pattern)
		if err != nil {
			c.logger.Error("secondary cache key scan error", "pattern", pattern, "err", err)
		} else {
			for _, key := range keys {
				if err := c.secondary.Delete(ctx, key); err != nil {
					c.logger.Error("secondary cache delete error", "key", key, "err", err)
					continue
				}
				count++
			}
		}
	}

	c.mu.Lock()
	c.invalidations += uint64(count)
	c.mu.Unlock()

	c.logger.Info("cache pattern invalidation", "pattern", pattern, "removed", count)
	return count
}

// Cleanup removes all expired entries from the primary tier and returns the
// number removed. Sweeps are rate-limited: a call within the cleanup
// interval of the previous sweep is a no-op returning zero. Secondary-tier
// entries carry their own TTL and expire in the store itself.
func (c *Cache[V]) Cleanup(ctx context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastCleanup.IsZero() && now.Sub(c.lastCleanup) < c.interval {
		return 0
	}
	c.lastCleanup = now
	c.cleanups++

	removed := 0
	for key, e := range c.entries {
		if now.Sub(e.timestamp) >= c.ttl {
			delete(c.entries, key)
			removed++
		}
	}
	c.itemsCleaned += uint64(removed)

	if removed > 0 {
		c.logger.Info("cache cleanup", "removed", removed, "size", len(c.entries))
	}
	return removed
}

// StartCleanup launches a background goroutine that sweeps expired entries
// every interval. The goroutine is owned by the cache and stops when Close
// is called.
func (c *Cache[V]) StartCleanup(interval time.Duration) {
	if interval <= 0 {
		interval = c.interval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-c.done:
				return
			case <-ticker.C:
				c.Cleanup(context.Background())
			}
		}
	}()
}

// Close stops the background cleanup goroutine. It does not close the
// secondary store, which may be shared between caches.
func (c *Cache[V]) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Size             int
	MaxItems         int
	UsagePct         float64
	HitRatePct       float64
	MemoryHits       uint64
	SecondaryHits    uint64
	Misses           uint64
	Sets             uint64
	Invalidations    uint64
	Cleanups         uint64
	ItemsCleaned     uint64
	LastCleanup      time.Time
	SecondaryEnabled bool
	TTL              time.Duration
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:             len(c.entries),
		MaxItems:         c.maxItems,
		MemoryHits:       c.memoryHits,
		SecondaryHits:    c.secondaryHits,
		Misses:           c.misses,
		Sets:             c.sets,
		Invalidations:    c.invalidations,
		Cleanups:         c.cleanups,
		ItemsCleaned:     c.itemsCleaned,
		LastCleanup:      c.lastCleanup,
		SecondaryEnabled: c.secondary != nil,
		TTL:              c.ttl,
	}
	if c.maxItems > 0 {
		s.UsagePct = float64(len(c.entries)) / float64(c.maxItems) * 100
	}
	total := c.memoryHits + c.secondaryHits + c.misses
	if total > 0 {
		s.HitRatePct = float64(c.memoryHits+c.secondaryHits) / float64(total) * 100
	}
	return s
}

// evictOldestLocked removes the oldest 20% of maxItems by insertion time.
// Caller must hold c.mu.
func (c *Cache[V]) evictOldestLocked() {
	toClear := int(float64(c.maxItems) * evictionFraction)
	if toClear < 1 {
		toClear = 1
	}

	type aged struct {
		key       string
		timestamp time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		all = append(all, aged{key: key, timestamp: e.timestamp})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].timestamp.Before(all[j].timestamp)
	})

	if toClear > len(all) {
		toClear = len(all)
	}
	for _, a := range all[:toClear] {
		delete(c.entries, a.key)
	}
	c.itemsCleaned += uint64(toClear)

	c.logger.Info("cache capacity eviction", "removed", toClear, "size", len(c.entries))
}

func containsPattern(key, pattern string) bool {
	return strings.Contains(key, pattern)
}
