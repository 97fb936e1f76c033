// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package forum

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/threadseek/core"
)

// RetryPolicy retries transient platform failures with exponential backoff.
// A rate-limit hint from the platform overrides the computed delay.
// Definitive failures stop the retry loop immediately.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy returns the policy used throughout the search path.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond}
}

// Do runs operation until it succeeds, fails definitively, exhausts the
// attempt budget, or ctx terminates. Returns the error from the last attempt.
func (p RetryPolicy) Do(ctx context.Context, operation func() error) error {
	if p.MaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		// Check context before attempting
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		lastErr = operation()
		if lastErr == nil {
			if attempt > 1 {
				slog.Debug("operation succeeded after retry", "attempt", attempt)
			}
			return nil
		}

		if IsDefinitive(lastErr) {
			return lastErr
		}

		slog.Debug("operation failed, will retry", "attempt", attempt, "maxAttempts", p.MaxAttempts, "error", lastErr)

		// Don't sleep after the last attempt
		if attempt == p.MaxAttempts {
			break
		}

		// Exponential backoff: BaseDelay * 2^(attempt-1), unless the
		// platform asked for a specific wait.
		delay := p.BaseDelay
		for i := 1; i < attempt; i++ {
			delay *= 2
		}
		if hint := RetryAfterHint(lastErr); hint > delay {
			delay = hint
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return lastErr
}

// FetchFirstMessage fetches the starter message of thread through src,
// retrying transient failures per policy.
func FetchFirstMessage(ctx context.Context, src ThreadSource, thread *core.Thread, policy RetryPolicy) (*core.Message, error) {
	var msg *core.Message
	err := policy.Do(ctx, func() error {
		var opErr error
		msg, opErr = src.FetchFirstMessage(ctx, thread)
		return opErr
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}
