package search

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/threadseek/core"
	"github.com/poiesic/threadseek/forum"
	"github.com/poiesic/threadseek/query"
)

const (
	defaultConcurrency     = 5
	defaultPageSize        = 100
	defaultMaxResults      = 1000
	defaultProgressSpacing = 1200 * time.Millisecond

	// batches at or below this size run inline, the scheduling overhead
	// isn't worth it
	smallBatchInline = 3

	// consecutive archived-page listing failures before the run gives up
	// on paging
	maxPageErrors = 3
)

// Pipeline evaluates candidate threads against a Condition with bounded
// concurrency. One Pipeline serves many searches; per-search state lives
// in the Run handle and an internal accumulator.
type Pipeline struct {
	threads       *ThreadCache
	parser        *query.Parser
	pool          *ants.Pool
	retry         forum.RetryPolicy
	statsOverride forum.StatsProvider
	pageSize      int
	maxResults    int
	progressEvery time.Duration
	logger        *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline) error

// WithConcurrency caps the number of threads undergoing fetch and filter
// simultaneously. Default is 5.
func WithConcurrency(n int) PipelineOption {
	return func(p *Pipeline) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}

		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithRetry sets the retry policy for message fetches.
// Default is forum.DefaultRetryPolicy().
func WithRetry(policy forum.RetryPolicy) PipelineOption {
	return func(p *Pipeline) error {
		if policy.MaxAttempts <= 0 {
			return forum.ErrInvalidMaxAttempts
		}
		p.retry = policy
		return nil
	}
}

// WithPageSize sets the archived-thread page size.
// Default is 100.
func WithPageSize(n int) PipelineOption {
	return func(p *Pipeline) error {
		if n < 1 {
			n = defaultPageSize
		}
		p.pageSize = n
		return nil
	}
}

// WithMaxResults caps the accumulated result count; once reached no
// further archived pages are requested. Default is 1000.
func WithMaxResults(n int) PipelineOption {
	return func(p *Pipeline) error {
		if n < 1 {
			n = defaultMaxResults
		}
		p.maxResults = n
		return nil
	}
}

// WithProgressSpacing sets the minimum time between progress emissions.
// Default is 1.2 seconds.
func WithProgressSpacing(d time.Duration) PipelineOption {
	return func(p *Pipeline) error {
		if d > 0 {
			p.progressEvery = d
		}
		return nil
	}
}

// WithStatsProvider overrides the stats provider. By default stats are
// computed from the thread source itself.
func WithStatsProvider(provider forum.StatsProvider) PipelineOption {
	return func(p *Pipeline) error {
		p.statsOverride = provider
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a search pipeline over the given cache.
func NewPipeline(threads *ThreadCache, opts ...PipelineOption) (*Pipeline, error) {
	if threads == nil {
		return nil, ErrThreadCacheRequired
	}

	pool, err := ants.NewPool(defaultConcurrency)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		threads:       threads,
		pool:          pool,
		retry:         forum.DefaultRetryPolicy(),
		pageSize:      defaultPageSize,
		maxResults:    defaultMaxResults,
		progressEvery: defaultProgressSpacing,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	// Create the parser after options so it shares the final logger
	parser, err := query.NewParser(query.WithLogger(p.logger))
	if err != nil {
		p.Release()
		return nil, err
	}
	p.parser = parser

	return p, nil
}

// BuildCondition validates and normalizes req using the pipeline's parser.
func (p *Pipeline) BuildCondition(req Request) (*Condition, error) {
	return BuildCondition(req, p.parser)
}

// runState accumulates results and counters for one search run.
type runState struct {
	mu        sync.Mutex
	results   []*core.ThreadRecord
	processed int
	matched   int
	pages     int
	errors    int
	started   time.Time
	lastEmit  time.Time
}

func (st *runState) add(rec *core.ThreadRecord) {
	st.mu.Lock()
	st.results = append(st.results, rec)
	st.matched++
	st.mu.Unlock()
}

func (st *runState) bumpProcessed() {
	st.mu.Lock()
	st.processed++
	st.mu.Unlock()
}

func (st *runState) bumpErrors() {
	st.mu.Lock()
	st.errors++
	st.mu.Unlock()
}

func (st *runState) bumpPages() {
	st.mu.Lock()
	st.pages++
	st.mu.Unlock()
}

func (st *runState) resultCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.results)
}

func (st *runState) snapshotLocked() Snapshot {
	return Snapshot{
		Processed: st.processed,
		Matched:   st.matched,
		Pages:     st.pages,
		Errors:    st.errors,
		Elapsed:   time.Since(st.started),
	}
}

func (st *runState) snapshot() Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.snapshotLocked()
}

// Run evaluates every candidate thread from src against cond and returns
// the accepted records, unranked. The active set is fully processed before
// archived pages are walked. Cancellation via run is not an error: the
// records accumulated so far are returned.
func (p *Pipeline) Run(ctx context.Context, src forum.ThreadSource, cond *Condition, run *Run, monitor Monitor) ([]*core.ThreadRecord, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	if cond == nil {
		return nil, ErrConditionRequired
	}
	if run == nil {
		return nil, ErrRunRequired
	}
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	stats := p.statsOverride
	if stats == nil {
		var err error
		stats, err = forum.NewSourceStats(src,
			forum.WithRetryPolicy(p.retry), forum.WithLogger(p.logger))
		if err != nil {
			return nil, err
		}
	}

	now := time.Now()
	st := &runState{started: now, lastEmit: now}
	monitor.Start(run, cond)

	active, err := src.ListActive(ctx)
	if err != nil {
		st.bumpErrors()
		p.logger.Error("active thread listing failed", "error", err)
	} else {
		p.processBatch(ctx, src, stats, cond, run, active, st)
	}
	monitor.ActiveDone(st.snapshot())

	pageErrors := 0
	var before core.ID
	for !run.Cancelled() && ctx.Err() == nil && st.resultCount() < p.maxResults {
		page, err := src.ListArchived(ctx, before, p.pageSize)
		if err != nil {
			st.bumpErrors()
			pageErrors++
			p.logger.Warn("archived page listing failed", "error", err, "failures", pageErrors)
			if pageErrors >= maxPageErrors {
				break
			}
			continue
		}
		pageErrors = 0
		if len(page) == 0 {
			break
		}
		before = page[len(page)-1].Id
		st.bumpPages()

		p.processBatch(ctx, src, stats, cond, run, page, st)
		p.emitProgress(monitor, st)
	}

	snap := st.snapshot()
	results := st.results
	monitor.Finish(snap, results)

	p.logger.Info("search run finished",
		"run", run.ID(),
		"processed", snap.Processed,
		"matched", snap.Matched,
		"pages", snap.Pages,
		"errors", snap.Errors,
		"cancelled", run.Cancelled(),
		"elapsed", snap.Elapsed)

	return results, nil
}

// processBatch filters one batch of candidates. Small batches run inline;
// larger ones are spread over the worker pool, still bounded by its size.
func (p *Pipeline) processBatch(ctx context.Context, src forum.ThreadSource, stats forum.StatsProvider, cond *Condition, run *Run, threads []*core.Thread, st *runState) {
	if len(threads) == 0 || run.Cancelled() || ctx.Err() != nil {
		return
	}

	if len(threads) <= smallBatchInline {
		for _, thread := range threads {
			p.evaluateThread(ctx, src, stats, cond, run, thread, st)
		}
		return
	}

	var wg sync.WaitGroup
	for _, thread := range threads {
		if run.Cancelled() {
			break
		}
		wg.Add(1)
		task := func() {
			defer wg.Done()
			p.evaluateThread(ctx, src, stats, cond, run, thread, st)
		}
		if err := p.pool.Submit(task); err != nil {
			// pool released or overloaded, degrade to inline
			task()
		}
	}
	wg.Wait()
}

// evaluateThread walks one candidate through the filter chain: structural
// filters, cache check, content fetch, keyword filter, stat filter.
func (p *Pipeline) evaluateThread(ctx context.Context, src forum.ThreadSource, stats forum.StatsProvider, cond *Condition, run *Run, thread *core.Thread, st *runState) {
	if run.Cancelled() || ctx.Err() != nil {
		return
	}
	st.bumpProcessed()

	if !cond.matchesStructural(thread) {
		return
	}

	// Cached records are re-validated against the current query's keyword
	// filters but never refetched.
	if rec, ok := p.threads.GetRecord(ctx, thread.Id); ok {
		if p.matchesKeywords(cond, rec.FirstMessageText) {
			st.add(&rec)
		}
		return
	}

	if run.Cancelled() || ctx.Err() != nil {
		return
	}

	msg, err := forum.FetchFirstMessage(ctx, src, thread, p.retry)
	if err != nil {
		if !errors.Is(err, forum.ErrNotFound) {
			st.bumpErrors()
			p.logger.Warn("starter message fetch failed", "thread", thread.Id, "error", err)
		}
		return
	}

	if !p.matchesKeywords(cond, msg.Content) {
		return
	}

	threadStats := p.threads.GetStats(ctx, thread, stats)
	if threadStats.ReactionCount < cond.MinReactions || threadStats.ReplyCount < cond.MinReplies {
		return
	}

	rec := core.ThreadRecord{
		Id:               thread.Id,
		Title:            thread.Title,
		AuthorID:         thread.AuthorID,
		AuthorName:       thread.AuthorName,
		CreatedAt:        thread.CreatedAt,
		LastActiveAt:     thread.LastActiveAt,
		Tags:             thread.Tags,
		Stats:            threadStats,
		FirstMessageText: msg.Content,
		JumpURL:          thread.JumpURL,
	}
	p.threads.PutRecord(ctx, rec)
	st.add(&rec)
}

// matchesKeywords applies the exclude-keyword veto and then the parsed
// query against content.
func (p *Pipeline) matchesKeywords(cond *Condition, content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range cond.ExcludeKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	if cond.Query != nil {
		return p.parser.Evaluate(cond.Query, content)
	}
	return true
}

func (p *Pipeline) emitProgress(monitor Monitor, st *runState) {
	st.mu.Lock()
	now := time.Now()
	if now.Sub(st.lastEmit) < p.progressEvery {
		st.mu.Unlock()
		return
	}
	st.lastEmit = now
	snap := st.snapshotLocked()
	st.mu.Unlock()

	monitor.Progress(snap)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
