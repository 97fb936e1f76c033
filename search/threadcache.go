package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/threadseek/cache"
	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum"
)

const (
	defaultRecordTTL  = 30 * time.Minute
	defaultMaxRecords = 5000
)

// ThreadCache is the pipeline's view of the two-tier cache: one sub-cache
// for materialized thread records and one for per-thread stats. Both share
// the TTL and the optional secondary store.
type ThreadCache struct {
	records *cache.Cache[core.ThreadRecord]
	stats   *cache.Cache[core.ThreadStats]
	logger  *slog.Logger
}

type threadCacheConfig struct {
	ttl        time.Duration
	maxRecords int
	secondary  cache.SecondaryStore
	logger     *slog.Logger
}

// ThreadCacheOption configures a ThreadCache.
type ThreadCacheOption func(*threadCacheConfig) error

// WithTTL sets the entry lifetime of both sub-caches.
// Default is 30 minutes.
func WithTTL(ttl time.Duration) ThreadCacheOption {
	return func(cfg *threadCacheConfig) error {
		if ttl <= 0 {
			return cache.ErrInvalidTTL
		}
		cfg.ttl = ttl
		return nil
	}
}

// WithMaxRecords sets the primary-tier capacity of each sub-cache.
// Default is 5000.
func WithMaxRecords(n int) ThreadCacheOption {
	return func(cfg *threadCacheConfig) error {
		if n < 1 {
			n = 1
		}
		cfg.maxRecords = n
		return nil
	}
}

// WithSecondaryStore attaches a secondary tier shared by both sub-caches.
func WithSecondaryStore(store cache.SecondaryStore) ThreadCacheOption {
	return func(cfg *threadCacheConfig) error {
		if store == nil {
			return cache.ErrStoreRequired
		}
		cfg.secondary = store
		return nil
	}
}

// WithCacheLogger sets a custom logger.
// Default is slog.Default().
func WithCacheLogger(logger *slog.Logger) ThreadCacheOption {
	return func(cfg *threadCacheConfig) error {
		if logger == nil {
			logger = slog.Default()
		}
		cfg.logger = logger
		return nil
	}
}

// NewThreadCache creates the record and stats sub-caches.
func NewThreadCache(opts ...ThreadCacheOption) (*ThreadCache, error) {
	cfg := &threadCacheConfig{
		ttl:        defaultRecordTTL,
		maxRecords: defaultMaxRecords,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	recordOpts := []cache.Option[core.ThreadRecord]{
		cache.WithMaxItems[core.ThreadRecord](cfg.maxRecords),
		cache.WithLogger[core.ThreadRecord](cfg.logger),
	}
	statsOpts := []cache.Option[core.ThreadStats]{
		cache.WithMaxItems[core.ThreadStats](cfg.maxRecords),
		cache.WithLogger[core.ThreadStats](cfg.logger),
	}
	if cfg.secondary != nil {
		recordOpts = append(recordOpts, cache.WithSecondary[core.ThreadRecord](cfg.secondary, core.ThreadRecordMUS))
		statsOpts = append(statsOpts, cache.WithSecondary[core.ThreadStats](cfg.secondary, core.ThreadStatsMUS))
	}

	records, err := cache.New[core.ThreadRecord](cfg.ttl, recordOpts...)
	if err != nil {
		return nil, err
	}
	stats, err := cache.New[core.ThreadStats](cfg.ttl, statsOpts...)
	if err != nil {
		return nil, err
	}

	return &ThreadCache{
		records: records,
		stats:   stats,
		logger:  cfg.logger,
	}, nil
}

func recordKey(id core.ID) string { return fmt.Sprintf("thread_record:%d", id) }
func statsKey(id core.ID) string  { return fmt.Sprintf("thread_stats:%d", id) }

// GetRecord returns the cached record for a thread id, if fresh.
func (tc *ThreadCache) GetRecord(ctx context.Context, id core.ID) (core.ThreadRecord, bool) {
	return tc.records.Get(ctx, recordKey(id))
}

// PutRecord caches a materialized thread record.
func (tc *ThreadCache) PutRecord(ctx context.Context, rec core.ThreadRecord) {
	tc.records.Set(ctx, recordKey(rec.Id), rec)
}

// GetStats returns the stats of a thread, computing and caching them on a
// miss. A provider failure degrades to zero-valued stats and is never
// surfaced to the caller.
func (tc *ThreadCache) GetStats(ctx context.Context, thread *core.Thread, provider forum.StatsProvider) core.ThreadStats {
	key := statsKey(thread.Id)
	if stats, ok := tc.stats.Get(ctx, key); ok {
		return stats
	}

	if provider == nil {
		return core.ThreadStats{}
	}
	stats, err := provider.ComputeStats(ctx, thread)
	if err != nil {
		tc.logger.Warn("stats computation failed", "thread", thread.Id, "error", err)
		return core.ThreadStats{}
	}
	tc.stats.Set(ctx, key, stats)
	return stats
}

// InvalidateThread drops every cached entry of a thread from both
// sub-caches and tiers, returning the number of entries removed.
func (tc *ThreadCache) InvalidateThread(ctx context.Context, id core.ID) int {
	pattern := fmt.Sprintf(":%d", id)
	return tc.records.InvalidatePattern(ctx, pattern) + tc.stats.InvalidatePattern(ctx, pattern)
}

// Cleanup sweeps expired entries from both sub-caches.
func (tc *ThreadCache) Cleanup(ctx context.Context) int {
	return tc.records.Cleanup(ctx) + tc.stats.Cleanup(ctx)
}

// StartCleanup launches the background sweep goroutines of both sub-caches.
func (tc *ThreadCache) StartCleanup(interval time.Duration) {
	tc.records.StartCleanup(interval)
	tc.stats.StartCleanup(interval)
}

// CacheStats pairs the counter snapshots of both sub-caches.
type CacheStats struct {
	Records cache.Stats
	Stats   cache.Stats
}

// Stats returns a snapshot of both sub-caches' counters.
func (tc *ThreadCache) Stats() CacheStats {
	return CacheStats{
		Records: tc.records.Stats(),
		Stats:   tc.stats.Stats(),
	}
}

// Close stops the background sweep goroutines. The secondary store is not
// closed here; its lifetime belongs to whoever opened it.
func (tc *ThreadCache) Close() {
	tc.records.Close()
	tc.stats.Close()
}
