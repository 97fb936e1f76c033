package mock

import (
	"context"
	"sync"

	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum"
)

// StatsProvider is a test double for forum.StatsProvider.
type StatsProvider struct {
	mu sync.Mutex

	// Stats maps thread IDs to the stats ComputeStats returns.
	Stats map[core.ID]core.ThreadStats

	// Err, when set, is returned by every ComputeStats call.
	Err error

	// ComputeStatsFunc overrides ComputeStats if set.
	ComputeStatsFunc func(ctx context.Context, thread *core.Thread) (core.ThreadStats, error)

	calls int
}

var _ forum.StatsProvider = (*StatsProvider)(nil)

// NewStatsProvider creates an empty scripted stats provider.
func NewStatsProvider() *StatsProvider {
	return &StatsProvider{Stats: make(map[core.ID]core.ThreadStats)}
}

func (p *StatsProvider) ComputeStats(ctx context.Context, thread *core.Thread) (core.ThreadStats, error) {
	p.mu.Lock()
	p.calls++
	fn := p.ComputeStatsFunc
	err := p.Err
	stats := p.Stats[thread.Id]
	p.mu.Unlock()

	if fn != nil {
		return fn(ctx, thread)
	}
	if err != nil {
		return core.ThreadStats{}, err
	}
	return stats, nil
}

// Calls returns the number of ComputeStats invocations.
func (p *StatsProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
