// Package export provides a forum.ThreadSource backed by a JSON Lines
// thread export file, letting searches run against an offline dump instead
// of a live platform connection.
package export

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum"
)

// threadEntry is one line of the export file.
type threadEntry struct {
	ID           uint64          `json:"id"`
	Title        string          `json:"title"`
	AuthorID     uint64          `json:"author_id"`
	AuthorName   string          `json:"author"`
	CreatedAt    time.Time       `json:"created_at"`
	LastActiveAt time.Time       `json:"last_active_at"`
	Tags         []string        `json:"tags"`
	MessageCount int             `json:"message_count"`
	JumpURL      string          `json:"jump_url"`
	Archived     bool            `json:"archived"`
	FirstMessage string          `json:"first_message"`
	Reactions    []reactionEntry `json:"reactions"`
}

type reactionEntry struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// Source serves threads loaded from an export file. It is read-only after
// Load and safe for concurrent use.
type Source struct {
	active   []*core.Thread
	archived []*core.Thread
	messages map[core.ID]*core.Message
}

var _ forum.ThreadSource = (*Source)(nil)

// Load reads a JSON Lines export file. Blank lines are skipped; a
// malformed line fails the load with its line number.
func Load(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := &Source{messages: make(map[core.ID]*core.Message)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var te threadEntry
		if err := json.Unmarshal(raw, &te); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		thread := &core.Thread{
			Id:           core.ID(te.ID),
			Title:        te.Title,
			AuthorID:     core.ID(te.AuthorID),
			AuthorName:   te.AuthorName,
			CreatedAt:    te.CreatedAt,
			LastActiveAt: te.LastActiveAt,
			Tags:         te.Tags,
			MessageCount: te.MessageCount,
			JumpURL:      te.JumpURL,
			Archived:     te.Archived,
		}
		if err := core.ValidateThread(thread); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		reactions := make([]core.Reaction, 0, len(te.Reactions))
		for _, r := range te.Reactions {
			reactions = append(reactions, core.Reaction{Emoji: r.Emoji, Count: r.Count})
		}
		s.messages[thread.Id] = &core.Message{
			Id:        thread.Id,
			AuthorID:  thread.AuthorID,
			Content:   te.FirstMessage,
			CreatedAt: te.CreatedAt,
			Reactions: reactions,
		}

		if te.Archived {
			s.archived = append(s.archived, thread)
		} else {
			s.active = append(s.active, thread)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// archived paging walks newest first
	sort.SliceStable(s.archived, func(i, j int) bool {
		return s.archived[i].CreatedAt.After(s.archived[j].CreatedAt)
	})

	return s, nil
}

// Len returns the total number of loaded threads.
func (s *Source) Len() int {
	return len(s.active) + len(s.archived)
}

func (s *Source) ListActive(ctx context.Context) ([]*core.Thread, error) {
	out := make([]*core.Thread, len(s.active))
	copy(out, s.active)
	return out, nil
}

func (s *Source) ListArchived(ctx context.Context, before core.ID, limit int) ([]*core.Thread, error) {
	start := 0
	if before != 0 {
		found := false
		for i, t := range s.archived {
			if t.Id == before {
				start = i + 1
				found = true
				break
			}
		}
		if !found {
			return nil, nil
		}
	}
	end := start + limit
	if limit <= 0 || end > len(s.archived) {
		end = len(s.archived)
	}
	return s.archived[start:end], nil
}

func (s *Source) FetchFirstMessage(ctx context.Context, thread *core.Thread) (*core.Message, error) {
	msg, ok := s.messages[thread.Id]
	if !ok {
		return nil, forum.ErrNotFound
	}
	return msg, nil
}

// History serves only the starter message; an export carries no full
// transcript. Reply counts therefore come from the thread's message_count.
func (s *Source) History(ctx context.Context, thread *core.Thread, limit int, oldestFirst bool) ([]*core.Message, error) {
	msg, ok := s.messages[thread.Id]
	if !ok {
		return nil, nil
	}
	return []*core.Message{msg}, nil
}
