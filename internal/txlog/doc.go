// Package txlog implements the ordered, append-only transaction log and the
// replay algorithm that reconstructs any coordinate's state from it.
//
// Every committed transaction carries a TransactionID assigned exactly once
// by Log.Append, the sole id authority in the system. Ids totally order the
// log: ascending major sequence number, minor as tie-breaker. No entry is
// ever rewritten or removed. Retroactive edits happen by appending Undo
// transactions, which replay then resolves by dropping the undone entries
// from the timeline entirely.
//
// A Log is not safe for concurrent use on its own; the engine serializes
// access under its lock discipline.
package txlog
