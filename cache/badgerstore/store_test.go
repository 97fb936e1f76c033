package badgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("value"), time.Minute))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestStore_GetAbsent(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	got, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, got)

	// deleting an absent key is not an error
	assert.NoError(t, store.Delete(ctx, "k"))
}

func TestStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 50*time.Millisecond))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Eventually(t, func() bool {
		got, err := store.Get(ctx, "k")
		return err == nil && got == nil
	}, time.Second, 20*time.Millisecond)
}

func TestStore_Keys(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore(t)

	require.NoError(t, store.Set(ctx, "thread_record:1", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "thread_stats:1", []byte("b"), time.Minute))
	require.NoError(t, store.Set(ctx, "thread_record:2", []byte("c"), time.Minute))

	keys, err := store.Keys(ctx, ":1")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"thread_record:1", "thread_stats:1"}, keys)

	keys, err = store.Keys(ctx, "thread_record")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"thread_record:1", "thread_record:2"}, keys)

	keys, err = store.Keys(ctx, "nomatch")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_Close(t *testing.T) {
	store, err := Open("", true)
	require.NoError(t, err)
	assert.False(t, store.IsClosed())
	require.NoError(t, store.Close())
	assert.True(t, store.IsClosed())
}

func TestOpen_OnDisk(t *testing.T) {
	dir := t.TempDir() + "/cache"
	store, err := Open(dir, false)
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
