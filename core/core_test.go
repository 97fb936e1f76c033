package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDFromContent(t *testing.T) {
	a := IDFromContent("crash OR freeze")
	b := IDFromContent("crash OR freeze")
	c := IDFromContent("crash OR hang")

	assert.Equal(t, a, b, "identical content must produce identical IDs")
	assert.NotEqual(t, a, c)
	assert.NotZero(t, a)
}

func TestMessage_ReactionTotal(t *testing.T) {
	msg := &Message{
		Reactions: []Reaction{
			{Emoji: "👍", Count: 3},
			{Emoji: "🎉", Count: 2},
		},
	}
	assert.Equal(t, 5, msg.ReactionTotal())

	empty := &Message{}
	assert.Equal(t, 0, empty.ReactionTotal())
}

func TestThreadRecord_LastActive(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	active := created.Add(48 * time.Hour)

	rec := &ThreadRecord{CreatedAt: created, LastActiveAt: active}
	assert.Equal(t, active, rec.LastActive())

	rec = &ThreadRecord{CreatedAt: created}
	assert.Equal(t, created, rec.LastActive(), "falls back to creation time")
}

func TestValidateThread(t *testing.T) {
	valid := &Thread{
		Id:        42,
		Title:     "Server crashes on startup",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	assert.NoError(t, ValidateThread(valid))

	t.Run("nil thread", func(t *testing.T) {
		assert.ErrorIs(t, ValidateThread(nil), ErrInvalidThread)
	})

	t.Run("missing id", func(t *testing.T) {
		thread := *valid
		thread.Id = 0
		err := ValidateThread(&thread)
		assert.ErrorIs(t, err, ErrInvalidThread)
		assert.ErrorIs(t, err, ErrMissingID)
	})

	t.Run("empty title", func(t *testing.T) {
		thread := *valid
		thread.Title = ""
		assert.ErrorIs(t, ValidateThread(&thread), ErrEmptyTitle)
	})

	t.Run("future timestamp", func(t *testing.T) {
		thread := *valid
		thread.CreatedAt = time.Now().Add(time.Hour)
		assert.ErrorIs(t, ValidateThread(&thread), ErrInvalidTimestamp)
	})
}

func TestValidateThreadRecord(t *testing.T) {
	valid := &ThreadRecord{Id: 7, Stats: ThreadStats{ReactionCount: 1, ReplyCount: 2}}
	assert.NoError(t, ValidateThreadRecord(valid))

	t.Run("negative stats", func(t *testing.T) {
		rec := *valid
		rec.Stats.ReplyCount = -1
		assert.ErrorIs(t, ValidateThreadRecord(&rec), ErrNegativeStats)
	})

	t.Run("missing id", func(t *testing.T) {
		rec := *valid
		rec.Id = 0
		assert.ErrorIs(t, ValidateThreadRecord(&rec), ErrMissingID)
	})
}

func TestThreadRecordSerialization(t *testing.T) {
	rec := &ThreadRecord{
		Id:           12345,
		Title:        "Memory leak in worker pool",
		AuthorID:     999,
		AuthorName:   "ada",
		CreatedAt:    time.Date(2025, 4, 2, 9, 30, 0, 0, time.UTC),
		LastActiveAt: time.Date(2025, 4, 5, 17, 45, 0, 0, time.UTC),
		Tags:         []string{"bug", "performance"},
		Stats:        ThreadStats{ReactionCount: 12, ReplyCount: 34},
		FirstMessageText: "The pool leaks goroutines under load.",
		JumpURL:          "https://example.test/t/12345",
	}

	data := MarshalThreadRecord(rec)
	got, err := UnmarshalThreadRecord(data)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestThreadRecordSerialization_ZeroTimes(t *testing.T) {
	rec := &ThreadRecord{Id: 1, Title: "t"}

	data := MarshalThreadRecord(rec)
	got, err := UnmarshalThreadRecord(data)
	require.NoError(t, err)

	assert.True(t, got.CreatedAt.IsZero())
	assert.True(t, got.LastActiveAt.IsZero())
	assert.Nil(t, got.Tags)
}

func TestThreadRecordSerialization_Skip(t *testing.T) {
	rec := ThreadRecord{Id: 5, Title: "first", Tags: []string{"a"}}
	stats := ThreadStats{ReactionCount: 7, ReplyCount: 9}

	buf := make([]byte, ThreadRecordMUS.Size(rec)+ThreadStatsMUS.Size(stats))
	n := ThreadRecordMUS.Marshal(rec, buf)
	ThreadStatsMUS.Marshal(stats, buf[n:])

	skipped, err := ThreadRecordMUS.Skip(buf)
	require.NoError(t, err)
	assert.Equal(t, n, skipped)

	got, _, err := ThreadStatsMUS.Unmarshal(buf[skipped:])
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}

func TestThreadStatsSerialization(t *testing.T) {
	stats := ThreadStats{ReactionCount: 3, ReplyCount: 17}
	data := MarshalThreadStats(stats)
	got, err := UnmarshalThreadStats(data)
	require.NoError(t, err)
	assert.Equal(t, stats, got)

	_, err = UnmarshalThreadStats([]byte{})
	assert.Error(t, err)
}
