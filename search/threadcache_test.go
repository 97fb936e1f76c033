package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum/mock"
)

func TestNewThreadCache(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		tc, err := NewThreadCache()
		require.NoError(t, err)
		defer tc.Close()
		assert.NotNil(t, tc)
	})

	t.Run("invalid ttl", func(t *testing.T) {
		_, err := NewThreadCache(WithTTL(0))
		assert.Error(t, err)
	})

	t.Run("nil secondary store", func(t *testing.T) {
		_, err := NewThreadCache(WithSecondaryStore(nil))
		assert.Error(t, err)
	})
}

func TestThreadCache_Records(t *testing.T) {
	ctx := context.Background()
	tc, err := NewThreadCache(WithTTL(time.Minute))
	require.NoError(t, err)
	defer tc.Close()

	_, ok := tc.GetRecord(ctx, 1)
	assert.False(t, ok)

	rec := core.ThreadRecord{Id: 1, Title: "t", FirstMessageText: "hello"}
	tc.PutRecord(ctx, rec)

	got, ok := tc.GetRecord(ctx, 1)
	require.True(t, ok)
	assert.Equal(t, rec, got)
}

func TestThreadCache_GetStats(t *testing.T) {
	ctx := context.Background()
	thread := &core.Thread{Id: 7, Title: "t"}

	t.Run("delegates to provider on miss and caches", func(t *testing.T) {
		tc, err := NewThreadCache(WithTTL(time.Minute))
		require.NoError(t, err)
		defer tc.Close()

		provider := mock.NewStatsProvider()
		provider.Stats[thread.Id] = core.ThreadStats{ReactionCount: 3, ReplyCount: 4}

		stats := tc.GetStats(ctx, thread, provider)
		assert.Equal(t, 3, stats.ReactionCount)
		assert.Equal(t, 1, provider.Calls())

		// second lookup is served from cache
		stats = tc.GetStats(ctx, thread, provider)
		assert.Equal(t, 3, stats.ReactionCount)
		assert.Equal(t, 1, provider.Calls())
	})

	t.Run("provider failure degrades to zeros", func(t *testing.T) {
		tc, err := NewThreadCache(WithTTL(time.Minute))
		require.NoError(t, err)
		defer tc.Close()

		provider := mock.NewStatsProvider()
		provider.Err = errors.New("platform down")

		stats := tc.GetStats(ctx, thread, provider)
		assert.Equal(t, core.ThreadStats{}, stats)

		// failures are not cached; recovery is picked up
		provider.Err = nil
		provider.Stats[thread.Id] = core.ThreadStats{ReplyCount: 2}
		stats = tc.GetStats(ctx, thread, provider)
		assert.Equal(t, 2, stats.ReplyCount)
	})

	t.Run("nil provider yields zeros", func(t *testing.T) {
		tc, err := NewThreadCache(WithTTL(time.Minute))
		require.NoError(t, err)
		defer tc.Close()

		assert.Equal(t, core.ThreadStats{}, tc.GetStats(ctx, thread, nil))
	})
}

func TestThreadCache_InvalidateThread(t *testing.T) {
	ctx := context.Background()
	tc, err := NewThreadCache(WithTTL(time.Minute))
	require.NoError(t, err)
	defer tc.Close()

	thread := &core.Thread{Id: 5, Title: "t"}
	provider := mock.NewStatsProvider()
	provider.Stats[thread.Id] = core.ThreadStats{ReplyCount: 1}

	tc.PutRecord(ctx, core.ThreadRecord{Id: 5, Title: "t"})
	tc.GetStats(ctx, thread, provider)

	removed := tc.InvalidateThread(ctx, 5)
	assert.Equal(t, 2, removed)

	_, ok := tc.GetRecord(ctx, 5)
	assert.False(t, ok)
	tc.GetStats(ctx, thread, provider)
	assert.Equal(t, 2, provider.Calls(), "stats recomputed after invalidation")
}

func TestThreadCache_Stats(t *testing.T) {
	ctx := context.Background()
	tc, err := NewThreadCache(WithTTL(time.Minute), WithMaxRecords(10))
	require.NoError(t, err)
	defer tc.Close()

	tc.PutRecord(ctx, core.ThreadRecord{Id: 1, Title: "t"})
	tc.GetRecord(ctx, 1)
	tc.GetRecord(ctx, 2)

	snap := tc.Stats()
	assert.Equal(t, 1, snap.Records.Size)
	assert.Equal(t, 10, snap.Records.MaxItems)
	assert.Equal(t, uint64(1), snap.Records.MemoryHits)
	assert.Equal(t, uint64(1), snap.Records.Misses)
	assert.Equal(t, 0, snap.Stats.Size)
}
