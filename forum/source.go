package forum

import (
	"context"

	"github.com/poiesic/threadseek/core"
)

// ThreadSource lists forum threads and fetches their messages.
// Implementations wrap the chat platform's API; the export package provides
// a file-backed implementation and the mock package a scripted one.
// Implementations must be safe for concurrent use.
type ThreadSource interface {
	// ListActive returns all currently active threads of the forum.
	ListActive(ctx context.Context) ([]*core.Thread, error)

	// ListArchived returns a page of archived threads, newest first.
	// A zero before cursor requests the first page; subsequent pages are
	// requested with the ID of the last thread of the previous page. An
	// empty page signals exhaustion.
	ListArchived(ctx context.Context, before core.ID, limit int) ([]*core.Thread, error)

	// FetchFirstMessage returns the starter message of a thread.
	// Returns ErrNotFound when the message has been deleted.
	FetchFirstMessage(ctx context.Context, thread *core.Thread) (*core.Message, error)

	// History returns messages of a thread. A non-positive limit requests
	// all of them. oldestFirst controls ordering.
	History(ctx context.Context, thread *core.Thread, limit int, oldestFirst bool) ([]*core.Message, error)
}

// StatsProvider computes engagement stats for a thread.
type StatsProvider interface {
	ComputeStats(ctx context.Context, thread *core.Thread) (core.ThreadStats, error)
}
