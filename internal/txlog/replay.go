package txlog

import "github.com/rewindlabs/rewind/internal/world"

// Replay reconstructs one coordinate's state from an ascending slice of the
// transactions relevant to it (typically Log.HistoryOf output or a prefix of
// it).
//
// Undone transactions are removed from the timeline entirely, not inverted:
// every non-Undo transaction whose id is targeted by any Undo in the slice
// is dropped before application. The remainder applies in ascending id order
// against the accumulator, starting from defaultState. Set overwrites
// unconditionally; Replace overwrites only when the accumulator equals its
// expected state, re-evaluated against this replayed timeline rather than
// the live world; a Replace that fails here is a historical no-op and the
// accumulator is left unchanged.
func Replay(transactions []Committed, defaultState world.BlockState) world.BlockState {
	undone := undoneIn(transactions)

	state := defaultState
	for _, tx := range transactions {
		state = advance(state, tx, undone)
	}
	return state
}

// PrefixStates returns, for each transaction in the slice, the state the
// coordinate held immediately before that transaction's own effect on the
// resolved timeline. Undone-ness is determined across the whole slice, so a
// transaction nullified by a later Undo is already absent from every prefix:
// the state paired with an Undo is the state its target no longer
// contributes to.
func PrefixStates(transactions []Committed, defaultState world.BlockState) []world.BlockState {
	undone := undoneIn(transactions)

	states := make([]world.BlockState, len(transactions))
	state := defaultState
	for i, tx := range transactions {
		states[i] = state
		state = advance(state, tx, undone)
	}
	return states
}

// undoneIn collects every id targeted by an Undo in the slice.
func undoneIn(transactions []Committed) map[TransactionID]struct{} {
	undone := map[TransactionID]struct{}{}
	for _, tx := range transactions {
		if tx.Op.Kind == OpUndo {
			undone[tx.Op.Target] = struct{}{}
		}
	}
	return undone
}

// advance applies one transaction to the accumulator, skipping Undos and
// dropped transactions.
func advance(state world.BlockState, tx Committed, undone map[TransactionID]struct{}) world.BlockState {
	if tx.Op.Kind == OpUndo {
		return state
	}
	if _, dropped := undone[tx.ID]; dropped {
		return state
	}
	switch tx.Op.Kind {
	case OpSet:
		return tx.Op.New
	case OpReplace:
		if state == tx.Op.Expected {
			return tx.Op.New
		}
	}
	return state
}
