package history

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/poiesic/threadseek/core"
)

const defaultPerUser = 50

var (
	// ErrPathRequired is returned when Open is given an empty path.
	ErrPathRequired = errors.New("history path required")
)

// Entry records one completed search.
type Entry struct {
	Query      string
	Forum      string
	Matched    int
	Processed  int
	SearchedAt time.Time
}

// Store holds recent search entries per user, newest first, bounded per
// user. Every mutation rewrites the on-disk snapshot.
type Store struct {
	mu      sync.Mutex
	path    string
	perUser int
	byUser  map[core.ID][]Entry
	logger  *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithPerUser sets how many entries are kept per user.
// Default is 50.
func WithPerUser(n int) Option {
	return func(s *Store) error {
		if n < 1 {
			n = 1
		}
		s.perUser = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// Open loads the snapshot at path, creating parent directories as needed.
// A missing or unreadable snapshot yields an empty store, never an error.
func Open(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrPathRequired
	}

	s := &Store{
		path:    path,
		perUser: defaultPerUser,
		byUser:  make(map[core.ID][]Entry),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	s.load()
	return s, nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("history snapshot unreadable, starting empty", "path", s.path, "error", err)
		}
		return
	}

	byUser, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn("history snapshot corrupt, starting empty", "path", s.path, "error", err)
		return
	}
	s.byUser = byUser
}

// Add prepends an entry to the user's history, trims it to the per-user
// bound, and rewrites the snapshot. A zero SearchedAt is stamped with the
// current time.
func (s *Store) Add(userID core.ID, e Entry) error {
	if e.SearchedAt.IsZero() {
		e.SearchedAt = time.Now().UTC()
	}

	s.mu.Lock()
	entries := append([]Entry{e}, s.byUser[userID]...)
	if len(entries) > s.perUser {
		entries = entries[:s.perUser]
	}
	s.byUser[userID] = entries
	data := encodeSnapshot(s.byUser)
	s.mu.Unlock()

	return s.writeSnapshot(data)
}

// writeSnapshot writes data atomically via a temp file and rename.
func (s *Store) writeSnapshot(data []byte) error {
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Recent returns up to n of the user's entries, newest first.
// A non-positive n returns all of them.
func (s *Store) Recent(userID core.ID, n int) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.byUser[userID]
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Users returns the number of users with recorded history.
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byUser)
}
