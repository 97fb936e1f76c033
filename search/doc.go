// Package search implements the thread-filtering pipeline: a normalized
// search condition built from raw request fields, concurrent per-thread
// evaluation over a forum.ThreadSource with a bounded worker gate, a
// two-tier record/stats cache facade, cooperative cancellation through
// run handles, and stable result ranking.
//
// Per candidate thread the pipeline runs cheap structural filters first
// (date, author, tags), then consults the record cache, and only then
// fetches the thread's starter message over the network. Cached records
// are re-validated against the current query's keyword filters, never
// refetched. Active threads are always fully processed before the
// archived set is paged through.
package search
