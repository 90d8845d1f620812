package txlog

import (
	"fmt"

	"github.com/rewindlabs/rewind/internal/world"
)

// Log is the ordered, append-only record of committed transactions.
//
// Entries are keyed by TransactionID and traversed in ascending id order
// regardless of how they arrived. Nothing is ever rewritten or removed, so
// the log grows without bound by design.
type Log struct {
	byID    map[TransactionID]int
	entries []Committed // ascending TransactionID
}

// NewLog returns an empty log.
func NewLog() *Log {
	return &Log{byID: map[TransactionID]int{}}
}

// Len returns the number of committed transactions.
func (l *Log) Len() int {
	return len(l.entries)
}

// Append assigns the next TransactionID, (previousMax.Major+1, 0) or (0,0)
// for an empty log, wraps p with it, stores the result, and returns it.
// Append is the sole id-assignment authority in the system; each successful
// call strictly increases the maximum id.
func (l *Log) Append(p Pending) Committed {
	var id TransactionID
	if n := len(l.entries); n > 0 {
		id = l.entries[n-1].ID.Next()
	}
	committed := Committed{Pending: p, ID: id}
	l.byID[id] = len(l.entries)
	l.entries = append(l.entries, committed)
	return committed
}

// Lookup returns the committed transaction with the given id.
func (l *Log) Lookup(id TransactionID) (Committed, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Committed{}, false
	}
	return l.entries[i], true
}

// Ascending returns a copy of every committed transaction in ascending id
// order.
func (l *Log) Ascending() []Committed {
	out := make([]Committed, len(l.entries))
	copy(out, l.entries)
	return out
}

// MaxID returns the highest assigned id, if any transaction has committed.
func (l *Log) MaxID() (TransactionID, bool) {
	if len(l.entries) == 0 {
		return TransactionID{}, false
	}
	return l.entries[len(l.entries)-1].ID, true
}

// UndoTargetOf returns the id of the first committed Undo whose target is
// id. Undoing a target more than once is equivalent to undoing it once, so
// the first match suffices and any match would be correct.
func (l *Log) UndoTargetOf(id TransactionID) (TransactionID, bool) {
	for _, tx := range l.entries {
		if tx.Op.Kind == OpUndo && tx.Op.Target == id {
			return tx.ID, true
		}
	}
	return TransactionID{}, false
}

// UndoChainOf follows UndoTargetOf repeatedly from id until no further Undo
// is found, returning every id visited: id itself, then each Undo targeting
// the previous element. Only this single linear chain is followed. In an
// engine-built log an Undo's id always exceeds its target's, so the walk
// strictly ascends; a restored archive carries no such guarantee, so the
// walk also stops at the first id it has already visited rather than cycling.
func (l *Log) UndoChainOf(id TransactionID) []TransactionID {
	chain := []TransactionID{id}
	visited := map[TransactionID]struct{}{id: {}}
	cur := id
	for {
		next, ok := l.UndoTargetOf(cur)
		if !ok {
			return chain
		}
		if _, seen := visited[next]; seen {
			return chain
		}
		visited[next] = struct{}{}
		chain = append(chain, next)
		cur = next
	}
}

// TransactionsAffecting returns, in ascending id order, the ids of every
// committed Set and Replace recorded at c. Undo transactions carry no
// coordinate and are never in this set; HistoryOf pulls them in via the
// undo chains.
func (l *Log) TransactionsAffecting(c world.Coord) []TransactionID {
	var ids []TransactionID
	for _, tx := range l.entries {
		if tx.Op.Kind == OpUndo {
			continue
		}
		if tx.Coord != nil && *tx.Coord == c {
			ids = append(ids, tx.ID)
		}
	}
	return ids
}

// HistoryOf returns the complete, order-preserved set of transactions
// relevant to replaying c: the union of TransactionsAffecting(c) with the
// full undo chain of each of its members, materialized in ascending id
// order.
func (l *Log) HistoryOf(c world.Coord) []Committed {
	relevant := map[TransactionID]struct{}{}
	for _, id := range l.TransactionsAffecting(c) {
		for _, chained := range l.UndoChainOf(id) {
			relevant[chained] = struct{}{}
		}
	}

	var history []Committed
	for _, tx := range l.entries {
		if _, ok := relevant[tx.ID]; ok {
			history = append(history, tx)
		}
	}
	return history
}

// ResolvedCoordinateOf resolves the coordinate ultimately affected by an
// Undo, following Undo targets recursively until a non-Undo transaction is
// reached. Returns false when undoID is unknown, any link of the chain is
// missing, the targets cycle (possible only in a malformed archive), or the
// terminal transaction carries no coordinate.
func (l *Log) ResolvedCoordinateOf(undoID TransactionID) (world.Coord, bool) {
	tx, ok := l.Lookup(undoID)
	if !ok {
		return world.Coord{}, false
	}
	visited := map[TransactionID]struct{}{undoID: {}}
	for tx.Op.Kind == OpUndo {
		if _, seen := visited[tx.Op.Target]; seen {
			return world.Coord{}, false
		}
		visited[tx.Op.Target] = struct{}{}
		tx, ok = l.Lookup(tx.Op.Target)
		if !ok {
			return world.Coord{}, false
		}
	}
	if tx.Coord == nil {
		return world.Coord{}, false
	}
	return *tx.Coord, true
}

// FromArchive reconstructs a Log from transactions previously committed and
// reloaded by a persistence layer. Ids must arrive strictly ascending, as
// LoadAll returns them; no new ids are assigned.
func FromArchive(txs []Committed) (*Log, error) {
	l := NewLog()
	for i, tx := range txs {
		if i > 0 && !l.entries[i-1].ID.Less(tx.ID) {
			return nil, fmt.Errorf("txlog: archive out of order at %s (after %s)",
				tx.ID, l.entries[i-1].ID)
		}
		l.byID[tx.ID] = len(l.entries)
		l.entries = append(l.entries, tx)
	}
	return l, nil
}
