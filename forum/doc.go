// Package forum defines the collaborator interfaces through which searches
// reach the chat platform: ThreadSource for listing threads and fetching
// messages, and StatsProvider for computing per-thread engagement stats.
//
// Platform failures fall into two classes. Definitive failures (a deleted
// thread, a permission wall) will not succeed on retry and are surfaced
// immediately. Transient failures (rate limits, server errors, network
// blips) are retried with exponential backoff via RetryPolicy.
package forum
