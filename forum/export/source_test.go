package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum"
)

const sampleExport = `{"id":1,"title":"Crash on login","author_id":10,"author":"ada","created_at":"2025-03-01T10:00:00Z","tags":["bug"],"message_count":4,"archived":false,"first_message":"random crash after login","reactions":[{"emoji":"👍","count":3}]}

{"id":2,"title":"Feature wishlist","author_id":11,"author":"lin","created_at":"2025-02-10T08:00:00Z","tags":["feature"],"message_count":9,"archived":true,"first_message":"collecting ideas here"}
{"id":3,"title":"Old crash report","author_id":10,"author":"ada","created_at":"2025-01-05T14:00:00Z","tags":["bug"],"message_count":2,"archived":true,"first_message":"it crashed once"}
`

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "threads.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	src, err := Load(writeExport(t, sampleExport))
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())

	ctx := context.Background()

	active, err := src.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, core.ID(1), active[0].Id)
	assert.Equal(t, []string{"bug"}, active[0].Tags)

	// archived pages walk newest first
	page, err := src.ListArchived(ctx, 0, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, core.ID(2), page[0].Id)
	assert.Equal(t, core.ID(3), page[1].Id)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.jsonl"))
		assert.Error(t, err)
	})

	t.Run("malformed line", func(t *testing.T) {
		_, err := Load(writeExport(t, "{not json}\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 1")
	})

	t.Run("invalid thread", func(t *testing.T) {
		_, err := Load(writeExport(t, `{"id":0,"title":"x","created_at":"2025-01-01T00:00:00Z"}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrMissingID)
	})
}

func TestSource_Paging(t *testing.T) {
	src, err := Load(writeExport(t, sampleExport))
	require.NoError(t, err)
	ctx := context.Background()

	page, err := src.ListArchived(ctx, 0, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, core.ID(2), page[0].Id)

	page, err = src.ListArchived(ctx, page[0].Id, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, core.ID(3), page[0].Id)

	page, err = src.ListArchived(ctx, page[0].Id, 1)
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestSource_Messages(t *testing.T) {
	src, err := Load(writeExport(t, sampleExport))
	require.NoError(t, err)
	ctx := context.Background()

	msg, err := src.FetchFirstMessage(ctx, &core.Thread{Id: 1})
	require.NoError(t, err)
	assert.Equal(t, "random crash after login", msg.Content)
	assert.Equal(t, 3, msg.ReactionTotal())

	_, err = src.FetchFirstMessage(ctx, &core.Thread{Id: 99})
	assert.ErrorIs(t, err, forum.ErrNotFound)

	history, err := src.History(ctx, &core.Thread{Id: 2}, 0, true)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "collecting ideas here", history[0].Content)
}
