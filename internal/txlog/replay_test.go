package txlog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/world"
)

var defState = world.BlockState{Block: world.Block{Local: 0}}

func TestReplay_EmptyHistoryYieldsDefault(t *testing.T) {
	assert.Equal(t, defState, Replay(nil, defState))
}

func TestReplay_SetsApplyInOrder(t *testing.T) {
	l := NewLog()
	here := coord(0, 0, 0)
	l.Append(Pending{Op: SetOp(stateA), Coord: here})
	l.Append(Pending{Op: SetOp(stateB), Coord: here})

	assert.Equal(t, stateB, Replay(l.HistoryOf(*here), defState))
}

func TestReplay_UndoneTransactionsDropEntirely(t *testing.T) {
	l := NewLog()
	here := coord(0, 0, 0)
	l.Append(Pending{Op: SetOp(stateA), Coord: here})
	overwrite := l.Append(Pending{Op: SetOp(stateB), Coord: here})
	l.Append(Pending{Op: UndoOp(overwrite.ID)})

	assert.Equal(t, stateA, Replay(l.HistoryOf(*here), defState),
		"undoing the overwrite resurfaces the earlier write")
}

func TestReplay_DoubleUndoIsIdempotent(t *testing.T) {
	l := NewLog()
	here := coord(0, 0, 0)
	l.Append(Pending{Op: SetOp(stateA), Coord: here})
	overwrite := l.Append(Pending{Op: SetOp(stateB), Coord: here})
	l.Append(Pending{Op: UndoOp(overwrite.ID)})

	once := Replay(l.HistoryOf(*here), defState)
	l.Append(Pending{Op: UndoOp(overwrite.ID)})
	twice := Replay(l.HistoryOf(*here), defState)

	assert.Equal(t, once, twice)
	assert.Equal(t, stateA, twice)
}

func TestReplay_ReplaceEvaluatesAgainstReplayedTimeline(t *testing.T) {
	l := NewLog()
	here := coord(0, 0, 0)
	first := l.Append(Pending{Op: SetOp(stateA), Coord: here})
	// This CAS matched stateA when it originally committed.
	l.Append(Pending{Op: ReplaceOp(stateA, stateB), Coord: here})
	// Retroactively removing the first write makes the CAS's expectation
	// false on replay, so it becomes a historical no-op.
	l.Append(Pending{Op: UndoOp(first.ID)})

	assert.Equal(t, defState, Replay(l.HistoryOf(*here), defState))
}

func TestReplay_FailingReplaceLeavesAccumulator(t *testing.T) {
	l := NewLog()
	here := coord(0, 0, 0)
	l.Append(Pending{Op: SetOp(stateA), Coord: here})
	l.Append(Pending{Op: ReplaceOp(stateB, stateC), Coord: here}) // never matched

	history := l.HistoryOf(*here)
	require.Len(t, history, 2)
	assert.Equal(t, stateA, Replay(history, defState))
}

func TestPrefixStates_Reconstruction(t *testing.T) {
	l := NewLog()
	here := coord(0, 0, 0)
	l.Append(Pending{Op: SetOp(stateA), Coord: here})
	l.Append(Pending{Op: SetOp(stateB), Coord: here})
	l.Append(Pending{Op: SetOp(stateC), Coord: here})

	history := l.HistoryOf(*here)
	assert.Equal(t, []world.BlockState{defState, stateA, stateB},
		PrefixStates(history, defState))
}

func TestPrefixStates_UndoneWritesAbsentFromEveryPrefix(t *testing.T) {
	l := NewLog()
	here := coord(0, 0, 0)
	l.Append(Pending{Op: SetOp(stateA), Coord: here})
	overwrite := l.Append(Pending{Op: SetOp(stateB), Coord: here})
	l.Append(Pending{Op: UndoOp(overwrite.ID)})

	// The overwrite is nullified by the later undo, so no prefix ever
	// shows stateB: the undo's own entry pairs with stateA.
	history := l.HistoryOf(*here)
	assert.Equal(t, []world.BlockState{defState, stateA, stateA},
		PrefixStates(history, defState))
}

func TestPrefixStates_Empty(t *testing.T) {
	assert.Empty(t, PrefixStates(nil, defState))
}
