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

import "errors"

// Domain validation errors
var (
	// ErrInvalidThread indicates a Thread failed validation.
	ErrInvalidThread = errors.New("invalid thread")

	// ErrInvalidThreadRecord indicates a ThreadRecord failed validation.
	ErrInvalidThreadRecord = errors.New("invalid thread record")

	// ErrMissingID indicates the Id field is zero.
	ErrMissingID = errors.New("id cannot be zero")

	// ErrEmptyTitle indicates the Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrNegativeStats indicates a stats counter is negative.
	ErrNegativeStats = errors.New("stats counters cannot be negative")
)
