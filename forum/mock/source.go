package mock

import (
	"context"
	"sync"

	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum"
)

// Source is a test double for forum.ThreadSource.
// Threads and messages are scripted through the exported fields; each
// method can be overridden via its function field.
type Source struct {
	mu sync.Mutex

	// Active holds the threads returned by ListActive.
	Active []*core.Thread

	// Archived holds archived threads, newest first. ListArchived pages
	// through this slice by cursor.
	Archived []*core.Thread

	// Messages maps thread IDs to their starter message. A missing entry
	// makes FetchFirstMessage return forum.ErrNotFound.
	Messages map[core.ID]*core.Message

	// Histories maps thread IDs to their full history, oldest first.
	Histories map[core.ID][]*core.Message

	// FetchErrs holds errors served by FetchFirstMessage before the
	// scripted message, consumed one per call. Used to script transient
	// failures that later succeed.
	FetchErrs map[core.ID][]error

	// ListActiveFunc overrides ListActive if set.
	ListActiveFunc func(ctx context.Context) ([]*core.Thread, error)

	// ListArchivedFunc overrides ListArchived if set.
	ListArchivedFunc func(ctx context.Context, before core.ID, limit int) ([]*core.Thread, error)

	// FetchFirstMessageFunc overrides FetchFirstMessage if set.
	FetchFirstMessageFunc func(ctx context.Context, thread *core.Thread) (*core.Message, error)

	// HistoryFunc overrides History if set.
	HistoryFunc func(ctx context.Context, thread *core.Thread, limit int, oldestFirst bool) ([]*core.Message, error)

	listActiveCalls   int
	listArchivedCalls int
	fetchCalls        int
	historyCalls      int
}

var _ forum.ThreadSource = (*Source)(nil)

// NewSource creates an empty scripted source.
func NewSource() *Source {
	return &Source{
		Messages:  make(map[core.ID]*core.Message),
		Histories: make(map[core.ID][]*core.Message),
		FetchErrs: make(map[core.ID][]error),
	}
}

// AddActive scripts an active thread with its starter message.
func (s *Source) AddActive(thread *core.Thread, first *core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Active = append(s.Active, thread)
	if first != nil {
		s.Messages[thread.Id] = first
	}
}

// AddArchived scripts an archived thread with its starter message.
// Threads must be added newest first.
func (s *Source) AddArchived(thread *core.Thread, first *core.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Archived = append(s.Archived, thread)
	if first != nil {
		s.Messages[thread.Id] = first
	}
}

func (s *Source) ListActive(ctx context.Context) ([]*core.Thread, error) {
	s.mu.Lock()
	s.listActiveCalls++
	fn := s.ListActiveFunc
	threads := make([]*core.Thread, len(s.Active))
	copy(threads, s.Active)
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return threads, nil
}

func (s *Source) ListArchived(ctx context.Context, before core.ID, limit int) ([]*core.Thread, error) {
	s.mu.Lock()
	s.listArchivedCalls++
	fn := s.ListArchivedFunc
	archived := make([]*core.Thread, len(s.Archived))
	copy(archived, s.Archived)
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, before, limit)
	}

	start := 0
	if before != 0 {
		for i, t := range archived {
			if t.Id == before {
				start = i + 1
				break
			}
		}
		if start == 0 {
			// unknown cursor, nothing after it
			return nil, nil
		}
	}
	end := start + limit
	if limit <= 0 || end > len(archived) {
		end = len(archived)
	}
	return archived[start:end], nil
}

func (s *Source) FetchFirstMessage(ctx context.Context, thread *core.Thread) (*core.Message, error) {
	s.mu.Lock()
	s.fetchCalls++
	fn := s.FetchFirstMessageFunc
	if fn == nil {
		if errs := s.FetchErrs[thread.Id]; len(errs) > 0 {
			err := errs[0]
			s.FetchErrs[thread.Id] = errs[1:]
			s.mu.Unlock()
			return nil, err
		}
		msg, ok := s.Messages[thread.Id]
		s.mu.Unlock()
		if !ok {
			return nil, forum.ErrNotFound
		}
		return msg, nil
	}
	s.mu.Unlock()
	return fn(ctx, thread)
}

func (s *Source) History(ctx context.Context, thread *core.Thread, limit int, oldestFirst bool) ([]*core.Message, error) {
	s.mu.Lock()
	s.historyCalls++
	fn := s.HistoryFunc
	history := append([]*core.Message(nil), s.Histories[thread.Id]...)
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, thread, limit, oldestFirst)
	}

	if !oldestFirst {
		for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
			history[i], history[j] = history[j], history[i]
		}
	}
	if limit > 0 && limit < len(history) {
		history = history[:limit]
	}
	return history, nil
}

// ListActiveCalls returns the number of ListActive invocations.
func (s *Source) ListActiveCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listActiveCalls
}

// ListArchivedCalls returns the number of ListArchived invocations.
func (s *Source) ListArchivedCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listArchivedCalls
}

// FetchCalls returns the number of FetchFirstMessage invocations.
func (s *Source) FetchCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetchCalls
}

// HistoryCalls returns the number of History invocations.
func (s *Source) HistoryCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyCalls
}
