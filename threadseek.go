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


package threadseek

import (
	"context"
	"log/slog"
	"time"

	"github.com/poiesic/threadseek/cache"
	"github.com/poiesic/threadseek/cache/badgerstore"
	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum"
	"github.com/poiesic/threadseek/history"
	"github.com/poiesic/threadseek/search"
)

// Engine bundles the search pipeline with its caches, run registry, and
// optional history store. One Engine serves many concurrent searches.
type Engine struct {
	threads  *search.ThreadCache
	pipeline *search.Pipeline
	runs     *search.Runs
	history  *history.Store

	secondary     cache.SecondaryStore
	ownsSecondary bool

	logger *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	cachePath     string
	secondary     cache.SecondaryStore
	historyPath   string
	ttl           time.Duration
	maxRecords    int
	concurrency   int
	maxResults    int
	sweepInterval time.Duration
	logger        *slog.Logger
}

// WithCachePath opens a badger-backed secondary cache tier at path.
// The engine owns the store and closes it on Close.
func WithCachePath(path string) EngineOption {
	return func(o *engineOptions) {
		o.cachePath = path
	}
}

// WithSecondaryStore attaches an externally-owned secondary cache tier.
func WithSecondaryStore(store cache.SecondaryStore) EngineOption {
	return func(o *engineOptions) {
		o.secondary = store
	}
}

// WithHistoryPath enables the per-user search history snapshot at path.
func WithHistoryPath(path string) EngineOption {
	return func(o *engineOptions) {
		o.historyPath = path
	}
}

// WithCacheTTL sets the thread cache entry lifetime.
func WithCacheTTL(ttl time.Duration) EngineOption {
	return func(o *engineOptions) {
		o.ttl = ttl
	}
}

// WithMaxRecords sets the primary cache capacity.
func WithMaxRecords(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxRecords = n
	}
}

// WithConcurrency caps concurrent per-thread evaluations.
func WithConcurrency(n int) EngineOption {
	return func(o *engineOptions) {
		o.concurrency = n
	}
}

// WithMaxResults caps the number of accumulated results per search.
func WithMaxResults(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxResults = n
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// NewEngine wires up the cache, pipeline, and run registry, plus the
// optional secondary tier and history store.
func NewEngine(opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		sweepInterval: time.Minute,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{
		secondary: options.secondary,
		logger:    options.logger,
	}

	if e.secondary == nil && options.cachePath != "" {
		store, err := badgerstore.Open(options.cachePath, false)
		if err != nil {
			return nil, err
		}
		e.secondary = store
		e.ownsSecondary = true
	}

	cacheOpts := []search.ThreadCacheOption{
		search.WithCacheLogger(options.logger),
	}
	if options.ttl > 0 {
		cacheOpts = append(cacheOpts, search.WithTTL(options.ttl))
	}
	if options.maxRecords > 0 {
		cacheOpts = append(cacheOpts, search.WithMaxRecords(options.maxRecords))
	}
	if e.secondary != nil {
		cacheOpts = append(cacheOpts, search.WithSecondaryStore(e.secondary))
	}
	threads, err := search.NewThreadCache(cacheOpts...)
	if err != nil {
		e.closeSecondary()
		return nil, err
	}
	e.threads = threads

	pipelineOpts := []search.PipelineOption{
		search.WithLogger(options.logger),
	}
	if options.concurrency > 0 {
		pipelineOpts = append(pipelineOpts, search.WithConcurrency(options.concurrency))
	}
	if options.maxResults > 0 {
		pipelineOpts = append(pipelineOpts, search.WithMaxResults(options.maxResults))
	}
	pipeline, err := search.NewPipeline(threads, pipelineOpts...)
	if err != nil {
		threads.Close()
		e.closeSecondary()
		return nil, err
	}
	e.pipeline = pipeline

	runs, err := search.NewRuns(search.WithRunsLogger(options.logger))
	if err != nil {
		pipeline.Release()
		threads.Close()
		e.closeSecondary()
		return nil, err
	}
	e.runs = runs

	if options.historyPath != "" {
		store, err := history.Open(options.historyPath, history.WithLogger(options.logger))
		if err != nil {
			runs.Close()
			pipeline.Release()
			threads.Close()
			e.closeSecondary()
			return nil, err
		}
		e.history = store
	}

	threads.StartCleanup(options.sweepInterval)
	runs.StartSweeper(options.sweepInterval)

	return e, nil
}

// Search runs one search over src and returns the matching records,
// ranked. Condition-building failures surface before any fetch work
// begins. Cancellation mid-run yields the partial results collected so
// far, not an error.
func (e *Engine) Search(ctx context.Context, src forum.ThreadSource, req search.Request, monitor search.Monitor) ([]*core.ThreadRecord, error) {
	cond, err := e.pipeline.BuildCondition(req)
	if err != nil {
		return nil, err
	}

	run := e.runs.Begin(req.Query)
	defer e.runs.Remove(run.ID())

	capture := &captureMonitor{inner: monitor}
	results, err := e.pipeline.Run(ctx, src, cond, run, capture)
	if err != nil {
		return nil, err
	}

	search.SortResults(results, cond.Order)

	if e.history != nil && req.UserID != 0 {
		entry := history.Entry{
			Query:     req.Query,
			Forum:     req.Forum,
			Matched:   len(results),
			Processed: capture.final.Processed,
		}
		if histErr := e.history.Add(req.UserID, entry); histErr != nil {
			e.logger.Warn("history write failed", "user", req.UserID, "error", histErr)
		}
	}

	return results, nil
}

// captureMonitor forwards to an optional inner monitor and keeps the final
// snapshot for history bookkeeping.
type captureMonitor struct {
	inner search.Monitor
	final search.Snapshot
}

var _ search.Monitor = (*captureMonitor)(nil)

func (m *captureMonitor) Start(run *search.Run, cond *search.Condition) {
	if m.inner != nil {
		m.inner.Start(run, cond)
	}
}

func (m *captureMonitor) ActiveDone(snap search.Snapshot) {
	if m.inner != nil {
		m.inner.ActiveDone(snap)
	}
}

func (m *captureMonitor) Progress(snap search.Snapshot) {
	if m.inner != nil {
		m.inner.Progress(snap)
	}
}

func (m *captureMonitor) Finish(snap search.Snapshot, results []*core.ThreadRecord) {
	m.final = snap
	if m.inner != nil {
		m.inner.Finish(snap, results)
	}
}

// Cancel signals the run registered under id to stop. Returns false when
// no such run is in flight.
func (e *Engine) Cancel(id core.ID) bool {
	return e.runs.Cancel(id)
}

// InvalidateThread drops a thread's cached record and stats.
func (e *Engine) InvalidateThread(ctx context.Context, id core.ID) int {
	return e.threads.InvalidateThread(ctx, id)
}

// CacheStats returns counter snapshots of the thread caches.
func (e *Engine) CacheStats() search.CacheStats {
	return e.threads.Stats()
}

// RecentSearches returns up to n history entries for a user, newest first.
// Without a configured history store it returns nil.
func (e *Engine) RecentSearches(userID core.ID, n int) []history.Entry {
	if e.history == nil {
		return nil
	}
	return e.history.Recent(userID, n)
}

// SyntaxHelp returns the static query-syntax description.
func (e *Engine) SyntaxHelp() string {
	return search.SyntaxHelp()
}

// Close releases the pipeline, caches, and registries. The secondary
// store is closed only when the engine opened it itself.
func (e *Engine) Close() error {
	e.runs.Close()
	e.pipeline.Release()
	e.threads.Close()
	return e.closeSecondary()
}

func (e *Engine) closeSecondary() error {
	if !e.ownsSecondary || e.secondary == nil {
		return nil
	}
	if err := e.secondary.Close(); err != nil {
		e.logger.Error("error closing secondary cache store", "err", err)
		return err
	}
	return nil
}
