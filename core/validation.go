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


package core

import (
	"fmt"
	"time"
)

// ValidateThread validates a Thread according to domain rules.
//
// Validation rules:
//   - Id must be non-zero
//   - Title must not be empty
//   - CreatedAt must not be in the future
//
// NOT validated (platform-dependent):
//   - Tags (threads may carry none)
//   - MessageCount (0 means unknown, resolved later via history)
//   - LastActiveAt (zero means never active after the opening post)
func ValidateThread(thread *Thread) error {
	if thread == nil {
		return fmt.Errorf("%w: thread is nil", ErrInvalidThread)
	}

	if thread.Id == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidThread, ErrMissingID)
	}

	if thread.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThread, ErrEmptyTitle)
	}

	if !IsValidTimestamp(thread.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidThread, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateThreadRecord validates a ThreadRecord before it is cached.
//
// Validation rules:
//   - Id must be non-zero
//   - Stats counters must not be negative
//
// NOT validated:
//   - FirstMessageText (threads with empty opening posts exist)
func ValidateThreadRecord(record *ThreadRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidThreadRecord)
	}

	if record.Id == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidThreadRecord, ErrMissingID)
	}

	if record.Stats.ReactionCount < 0 || record.Stats.ReplyCount < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidThreadRecord, ErrNegativeStats)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
