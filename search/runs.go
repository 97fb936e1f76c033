package search

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/threadseek/core"
)

const defaultStaleAfter = 10 * time.Minute

// Run is the cancellation handle of one in-flight search. Cancellation is
// cooperative: the pipeline checks the flag per thread and per batch, so
// fetches already dispatched still complete.
type Run struct {
	id        core.ID
	startedAt time.Time
	cancelled atomic.Bool
}

// ID returns the run's identifier.
func (r *Run) ID() core.ID { return r.id }

// StartedAt returns when the run was registered.
func (r *Run) StartedAt() time.Time { return r.startedAt }

// Cancel signals the run to stop dispatching new work.
func (r *Run) Cancel() { r.cancelled.Store(true) }

// Cancelled reports whether the run has been cancelled.
func (r *Run) Cancelled() bool { return r.cancelled.Load() }

// Runs tracks in-flight searches so callers can cancel them by id.
// A background sweep garbage-collects runs whose owner never cleaned up.
type Runs struct {
	mu         sync.Mutex
	active     map[core.ID]*Run
	staleAfter time.Duration
	logger     *slog.Logger
	now        func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

// RunsOption configures a Runs registry.
type RunsOption func(*Runs) error

// WithStaleAfter sets the age at which an abandoned run is swept.
// Default is 10 minutes.
func WithStaleAfter(d time.Duration) RunsOption {
	return func(rs *Runs) error {
		if d > 0 {
			rs.staleAfter = d
		}
		return nil
	}
}

// WithRunsLogger sets a custom logger.
// Default is slog.Default().
func WithRunsLogger(logger *slog.Logger) RunsOption {
	return func(rs *Runs) error {
		if logger == nil {
			logger = slog.Default()
		}
		rs.logger = logger
		return nil
	}
}

// NewRuns creates an empty run registry.
func NewRuns(opts ...RunsOption) (*Runs, error) {
	rs := &Runs{
		active:     make(map[core.ID]*Run),
		staleAfter: defaultStaleAfter,
		logger:     slog.Default(),
		now:        time.Now,
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		if err := opt(rs); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// Begin registers a new run. The label only seeds the id; ids stay unique
// even for identical labels.
func (rs *Runs) Begin(label string) *Run {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	now := rs.now()
	run := &Run{startedAt: now}
	run.id = core.IDFromContent(fmt.Sprintf("%s|%d", label, now.UnixNano()))
	for {
		if _, taken := rs.active[run.id]; !taken {
			break
		}
		run.id++
	}
	rs.active[run.id] = run
	return run
}

// Get returns the run registered under id, or nil.
func (rs *Runs) Get(id core.ID) *Run {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.active[id]
}

// Cancel cancels the run registered under id. Returns false when no such
// run exists.
func (rs *Runs) Cancel(id core.ID) bool {
	rs.mu.Lock()
	run := rs.active[id]
	rs.mu.Unlock()

	if run == nil {
		return false
	}
	run.Cancel()
	return true
}

// Remove deregisters a finished run.
func (rs *Runs) Remove(id core.ID) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	delete(rs.active, id)
}

// Len returns the number of registered runs.
func (rs *Runs) Len() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.active)
}

// Sweep cancels and removes runs older than the staleness threshold,
// returning the number swept.
func (rs *Runs) Sweep() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	now := rs.now()
	swept := 0
	for id, run := range rs.active {
		if now.Sub(run.startedAt) >= rs.staleAfter {
			run.Cancel()
			delete(rs.active, id)
			swept++
		}
	}
	if swept > 0 {
		rs.logger.Info("swept stale search runs", "count", swept)
	}
	return swept
}

// StartSweeper launches a background goroutine sweeping stale runs every
// interval. Stopped by Close.
func (rs *Runs) StartSweeper(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-rs.done:
				return
			case <-ticker.C:
				rs.Sweep()
			}
		}
	}()
}

// Close stops the background sweeper.
func (rs *Runs) Close() {
	rs.closeOnce.Do(func() {
		close(rs.done)
	})
}
