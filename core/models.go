package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Thread, user and message IDs come from the chat platform; derived IDs
// (query handles, run IDs) are generated with content-based hashing.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Thread is the metadata view of a forum discussion thread, as returned by
// the platform's thread listings. It carries everything a structural filter
// needs; message content requires a separate fetch.
type Thread struct {
	Id           ID
	Title        string
	AuthorID     ID
	AuthorName   string
	CreatedAt    time.Time
	LastActiveAt time.Time // zero when the platform reports no activity
	Tags         []string
	MessageCount int // total messages including the opening post, 0 when unknown
	JumpURL      string
	Archived     bool
}

// Message is a single message within a thread.
type Message struct {
	Id        ID
	AuthorID  ID
	Content   string
	CreatedAt time.Time
	Reactions []Reaction
}

// Reaction is an emoji reaction tally on a message.
type Reaction struct {
	Emoji string
	Count int
}

// ReactionTotal sums all reaction counts on the message.
func (m *Message) ReactionTotal() int {
	total := 0
	for _, r := range m.Reactions {
		total += r.Count
	}
	return total
}

// ThreadStats holds the per-thread counters used by threshold filters.
type ThreadStats struct {
	ReactionCount int
	ReplyCount    int
}

// ThreadRecord is the materialized view of a thread that passed all search
// filters. Records are cached by thread ID and reused across searches; on a
// cache hit only keyword conditions are re-evaluated against
// FirstMessageText.
type ThreadRecord struct {
	Id               ID
	Title            string
	AuthorID         ID
	AuthorName       string
	CreatedAt        time.Time
	LastActiveAt     time.Time
	Tags             []string
	Stats            ThreadStats
	FirstMessageText string
	JumpURL          string
}

// LastActive returns the last-activity timestamp, falling back to the
// creation time when no activity was recorded.
func (r *ThreadRecord) LastActive() time.Time {
	if r.LastActiveAt.IsZero() {
		return r.CreatedAt
	}
	return r.LastActiveAt
}
