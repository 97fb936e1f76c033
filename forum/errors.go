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
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the thread or message no longer exists.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied indicates the platform refused access.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrSourceRequired is returned when a nil ThreadSource is supplied.
	ErrSourceRequired = errors.New("thread source required")

	// ErrInvalidMaxAttempts is returned when a retry policy has a
	// non-positive attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")
)

// RateLimitedError indicates the platform throttled the request. RetryAfter
// is the wait the platform asked for; zero means no hint was given.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
	}
	return "rate limited"
}

// ServerError indicates a platform-side failure (HTTP 5xx class).
type ServerError struct {
	Code int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d", e.Code)
}

// IsDefinitive reports whether err will not succeed on retry.
// Not-found, permission walls, and context termination are definitive.
func IsDefinitive(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPermissionDenied) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// IsRetryable reports whether err is worth retrying. Anything not
// definitive is treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsDefinitive(err)
}

// RetryAfterHint returns the wait the platform asked for, if err carries
// one, and zero otherwise.
func RetryAfterHint(err error) time.Duration {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter
	}
	return 0
}
