package search

import (
	"time"

	"github.com/poiesic/threadseek/core"
)

// Snapshot is a point-in-time view of an in-flight search.
type Snapshot struct {
	Processed int
	Matched   int
	Pages     int
	Errors    int
	Elapsed   time.Duration
}

// Monitor provides hooks to observe a search run.
// Progress is emitted at a bounded rate; the other hooks fire once per run.
// Implementations are called from the pipeline goroutine and must not block.
type Monitor interface {
	Start(run *Run, cond *Condition)
	ActiveDone(snap Snapshot)
	Progress(snap Snapshot)
	Finish(snap Snapshot, results []*core.ThreadRecord)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ *Run, _ *Condition)               {}
func (n *noopMonitor) ActiveDone(_ Snapshot)                    {}
func (n *noopMonitor) Progress(_ Snapshot)                      {}
func (n *noopMonitor) Finish(_ Snapshot, _ []*core.ThreadRecord) {}
