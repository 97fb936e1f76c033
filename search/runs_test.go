package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuns_BeginCancelRemove(t *testing.T) {
	rs, err := NewRuns()
	require.NoError(t, err)
	defer rs.Close()

	run := rs.Begin("crash OR freeze")
	assert.NotZero(t, run.ID())
	assert.False(t, run.Cancelled())
	assert.Equal(t, 1, rs.Len())

	assert.Same(t, run, rs.Get(run.ID()))

	assert.True(t, rs.Cancel(run.ID()))
	assert.True(t, run.Cancelled())

	rs.Remove(run.ID())
	assert.Nil(t, rs.Get(run.ID()))
	assert.False(t, rs.Cancel(run.ID()))
}

func TestRuns_UniqueIDs(t *testing.T) {
	rs, err := NewRuns()
	require.NoError(t, err)
	defer rs.Close()

	// identical labels must still get distinct ids
	a := rs.Begin("same query")
	b := rs.Begin("same query")
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, rs.Len())
}

func TestRuns_Sweep(t *testing.T) {
	rs, err := NewRuns(WithStaleAfter(10 * time.Minute))
	require.NoError(t, err)
	defer rs.Close()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rs.now = func() time.Time { return clock }

	stale := rs.Begin("abandoned")
	clock = clock.Add(11 * time.Minute)
	fresh := rs.Begin("recent")

	assert.Equal(t, 1, rs.Sweep())
	assert.True(t, stale.Cancelled(), "swept runs are cancelled")
	assert.Nil(t, rs.Get(stale.ID()))
	assert.Same(t, fresh, rs.Get(fresh.ID()))

	assert.Equal(t, 0, rs.Sweep())
}
