// Package logstore provides SQLite-backed archival for a committed
// transaction log.
//
// The core keeps its log in memory and defines no on-disk layout of its
// own; this package is the persistence layer that sits on top of the core
// APIs. Archive writes committed transactions idempotently (re-archiving a
// log, or two overlapping archives of the same log, never duplicates or
// rewrites an entry), and LoadAll returns them in ascending id order, ready
// for txlog.FromArchive.
//
// Database configuration follows the usual SQLite discipline:
//
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//   - single connection (SQLite supports one writer at a time)
package logstore
