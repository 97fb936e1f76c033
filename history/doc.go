// Package history keeps a small per-user record of recent searches,
// snapshotted to a single on-disk file. The snapshot is written atomically
// after each addition; a missing or corrupt file degrades to an empty
// history rather than an error.
package history
