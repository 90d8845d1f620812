package engine

import (
	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

// HistoryEntry pairs a transaction relevant to a coordinate with the state
// that existed immediately before that transaction's own effect.
type HistoryEntry struct {
	// Before is the coordinate's state on the resolved timeline just
	// before Tx: transactions undone anywhere in the history are already
	// absent from it, so the entry for an Undo shows the state its target
	// no longer contributes to.
	Before world.BlockState `json:"before"`
	Tx     txlog.Committed  `json:"tx"`
}

// HistoryOf returns, in ascending id order, every transaction relevant to c
// paired with the replayed state preceding it (txlog.PrefixStates over the
// coordinate's history).
func (e *Engine) HistoryOf(c world.Coord) []HistoryEntry {
	e.logMu.RLock()
	defer e.logMu.RUnlock()

	history := e.log.HistoryOf(c)
	states := txlog.PrefixStates(history, e.def)
	entries := make([]HistoryEntry, len(history))
	for i, tx := range history {
		entries[i] = HistoryEntry{
			Before: states[i],
			Tx:     tx,
		}
	}
	return entries
}
