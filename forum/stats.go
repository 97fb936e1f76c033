package forum

import (
	"context"
	"log/slog"

	"github.com/poiesic/threadseek/core"
)

// SourceStats computes thread stats from a ThreadSource.
//
// Reaction count comes from the starter message; when fetching it fails the
// thread history is consulted for the oldest message instead. Reply count
// comes from the platform's message counter when present, otherwise from
// counting history. Every failure degrades the affected field to zero
// rather than failing the computation.
type SourceStats struct {
	src    ThreadSource
	retry  RetryPolicy
	logger *slog.Logger
}

var _ StatsProvider = (*SourceStats)(nil)

// SourceStatsOption configures a SourceStats.
type SourceStatsOption func(*SourceStats) error

// WithRetryPolicy sets the retry policy for platform calls.
// Default is DefaultRetryPolicy().
func WithRetryPolicy(policy RetryPolicy) SourceStatsOption {
	return func(s *SourceStats) error {
		if policy.MaxAttempts <= 0 {
			return ErrInvalidMaxAttempts
		}
		s.retry = policy
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) SourceStatsOption {
	return func(s *SourceStats) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSourceStats creates a stats provider backed by src.
func NewSourceStats(src ThreadSource, opts ...SourceStatsOption) (*SourceStats, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	s := &SourceStats{
		src:    src,
		retry:  DefaultRetryPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ComputeStats returns the engagement stats of thread. It never fails:
// fields whose source calls error out are reported as zero.
func (s *SourceStats) ComputeStats(ctx context.Context, thread *core.Thread) (core.ThreadStats, error) {
	var stats core.ThreadStats

	first, err := FetchFirstMessage(ctx, s.src, thread, s.retry)
	if err != nil {
		s.logger.Debug("starter message unavailable, falling back to history",
			"thread", thread.Id, "error", err)
		first = s.oldestFromHistory(ctx, thread)
	}
	if first != nil {
		stats.ReactionCount = first.ReactionTotal()
	}

	if thread.MessageCount > 0 {
		stats.ReplyCount = thread.MessageCount - 1
	} else {
		stats.ReplyCount = s.countRepliesFromHistory(ctx, thread)
	}

	return stats, nil
}

func (s *SourceStats) oldestFromHistory(ctx context.Context, thread *core.Thread) *core.Message {
	msgs, err := s.src.History(ctx, thread, 1, true)
	if err != nil {
		s.logger.Warn("history fallback failed", "thread", thread.Id, "error", err)
		return nil
	}
	if len(msgs) == 0 {
		return nil
	}
	return msgs[0]
}

func (s *SourceStats) countRepliesFromHistory(ctx context.Context, thread *core.Thread) int {
	msgs, err := s.src.History(ctx, thread, 0, false)
	if err != nil {
		s.logger.Warn("history count failed", "thread", thread.Id, "error", err)
		return 0
	}
	if len(msgs) == 0 {
		return 0
	}
	return len(msgs) - 1
}
