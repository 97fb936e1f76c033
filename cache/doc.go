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


// Package cache provides a two-tier TTL cache.
//
// The primary tier is an in-process map with per-entry insertion
// timestamps; entries older than the TTL are treated as absent and removed
// lazily on read. An optional secondary tier (any SecondaryStore, typically
// the badgerstore implementation) is consulted on primary misses and
// repopulated into the primary on hits.
//
// The cache is designed to never be the reason a lookup fails: every
// secondary-tier error is logged and swallowed, degrading the cache to
// primary-only operation.
//
// # Capacity and cleanup
//
// When the primary map reaches its configured maximum size, the oldest 20%
// of entries by insertion time are evicted before a new entry is stored.
// Cleanup sweeps are rate-limited: no matter how often Cleanup is called,
// a sweep runs at most once per cleanup interval. StartCleanup launches a
// background sweep goroutine owned by the cache and stopped by Close.
package cache
