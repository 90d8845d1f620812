// Package engine coordinates the Grid and the TransactionLog behind one
// façade with snapshot reads and atomic transaction application.
//
// There is no mode state machine: the engine's state is simply its current
// (Grid, Log) pair, and every operation is an all-or-nothing transition
// between such pairs.
//
// CONCURRENCY:
//
// Two independently lockable resources, one fixed order. ApplyTransaction
// takes exclusive locks on both, always Grid first and then the log, and
// releases them together, so readers can never observe a log entry without
// its Grid effect or vice versa. Snapshot takes a shared Grid lock just long
// enough to hand out the current (structurally shared) root; HistoryOf takes
// a shared log lock only. No operation blocks on I/O: lock waits are the
// only suspension points, and they resolve once the holder releases, so no
// timeout or cancellation is defined.
//
// REJECTION VS. FAULT:
//
// A Replace whose expectation does not match, an Undo of an unknown target,
// and a write outside a cell's vertical extent are routine rejections: the
// call reports "nothing committed" and neither resource is touched. A Set or
// Replace submitted without a coordinate (or an Undo submitted with one) is
// a precondition violation and panics.
package engine
