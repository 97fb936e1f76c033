package history

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/threadseek/core"
)

func tempSnapshot(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "history.bin")
}

func TestOpen(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		_, err := Open("")
		assert.Equal(t, ErrPathRequired, err)
	})

	t.Run("missing file is an empty store", func(t *testing.T) {
		s, err := Open(tempSnapshot(t))
		require.NoError(t, err)
		assert.Equal(t, 0, s.Users())
		assert.Empty(t, s.Recent(1, 0))
	})

	t.Run("creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "deeper", "history.bin")
		s, err := Open(path)
		require.NoError(t, err)
		require.NoError(t, s.Add(1, Entry{Query: "crash"}))
		_, err = os.Stat(path)
		assert.NoError(t, err)
	})
}

func TestStore_AddAndRecent(t *testing.T) {
	s, err := Open(tempSnapshot(t))
	require.NoError(t, err)

	user := core.ID(42)
	require.NoError(t, s.Add(user, Entry{Query: "first", Forum: "bugs", Matched: 1, Processed: 10}))
	require.NoError(t, s.Add(user, Entry{Query: "second", Forum: "bugs", Matched: 0, Processed: 5}))

	recent := s.Recent(user, 0)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Query, "newest first")
	assert.Equal(t, "first", recent[1].Query)
	assert.False(t, recent[0].SearchedAt.IsZero(), "zero timestamps are stamped")

	assert.Len(t, s.Recent(user, 1), 1)
	assert.Empty(t, s.Recent(core.ID(99), 0))
}

func TestStore_PerUserBound(t *testing.T) {
	s, err := Open(tempSnapshot(t), WithPerUser(3))
	require.NoError(t, err)

	user := core.ID(1)
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Add(user, Entry{Query: fmt.Sprintf("q%d", i)}))
	}

	recent := s.Recent(user, 0)
	require.Len(t, recent, 3)
	assert.Equal(t, "q4", recent[0].Query)
	assert.Equal(t, "q2", recent[2].Query)
}

func TestStore_Persistence(t *testing.T) {
	path := tempSnapshot(t)
	searchedAt := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Add(7, Entry{
		Query: "crash OR freeze", Forum: "support", Matched: 3, Processed: 120,
		SearchedAt: searchedAt,
	}))
	require.NoError(t, s.Add(8, Entry{Query: "other", SearchedAt: searchedAt}))

	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Users())

	recent := reopened.Recent(7, 0)
	require.Len(t, recent, 1)
	assert.Equal(t, Entry{
		Query: "crash OR freeze", Forum: "support", Matched: 3, Processed: 120,
		SearchedAt: searchedAt,
	}, recent[0])
}

func TestStore_CorruptSnapshotDegradesToEmpty(t *testing.T) {
	path := tempSnapshot(t)
	require.NoError(t, os.WriteFile(path, []byte("not a snapshot"), 0644))

	s, err := Open(path)
	require.NoError(t, err, "corruption must never fail startup")
	assert.Equal(t, 0, s.Users())

	// the store remains usable and rewrites a clean snapshot
	require.NoError(t, s.Add(1, Entry{Query: "fresh"}))
	reopened, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, reopened.Recent(1, 0), 1)
}

func TestSnapshotRoundTrip(t *testing.T) {
	byUser := map[core.ID][]Entry{
		1: {
			{Query: "a", Forum: "f", Matched: 1, Processed: 2, SearchedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
			{Query: "b"},
		},
		2: {},
	}

	decoded, err := decodeSnapshot(encodeSnapshot(byUser))
	require.NoError(t, err)
	assert.Equal(t, len(byUser), len(decoded))
	assert.Equal(t, byUser[1], decoded[1])
	assert.Empty(t, decoded[2])
}
