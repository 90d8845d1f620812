package engine

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

var (
	stone  = world.BlockState{Block: world.Block{Local: 1}}
	water  = world.BlockState{Block: world.Block{Local: 2}}
	stateA = world.BlockState{Block: world.Block{Local: 10}}
	stateB = world.BlockState{Block: world.Block{Local: 11}}
)

func set(c world.Coord, s world.BlockState) txlog.Pending {
	return txlog.Pending{Op: txlog.SetOp(s), Coord: &c}
}

func replace(c world.Coord, expected, s world.BlockState) txlog.Pending {
	return txlog.Pending{Op: txlog.ReplaceOp(expected, s), Coord: &c}
}

func undo(target txlog.TransactionID) txlog.Pending {
	return txlog.Pending{Op: txlog.UndoOp(target)}
}

// Fresh grid, default Stone, cell size 16: reads before any write, then the
// first commit takes id (0,0).
func TestEngine_FreshGridFirstCommit(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 5, Y: 5, Z: 5}

	snap := e.Snapshot()
	assert.Equal(t, stone, snap.StateOrDefault(at))
	_, ok := snap.State(at)
	assert.False(t, ok, "no cell materialized before any write")

	committed, ok := e.ApplyTransaction(set(at, water))
	require.True(t, ok)
	assert.Equal(t, txlog.TransactionID{Major: 0, Minor: 0}, committed.ID)

	got, ok := e.Snapshot().State(at)
	require.True(t, ok)
	assert.Equal(t, water, got)
}

func TestEngine_AppendOnlyGrowth(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 0, Y: 0, Z: 0}

	var lastMajor uint32
	for i := 0; i < 10; i++ {
		committed, ok := e.ApplyTransaction(set(at, water))
		require.True(t, ok)
		if i > 0 {
			assert.Greater(t, committed.ID.Major, lastMajor)
		}
		lastMajor = committed.ID.Major
	}
	assert.Equal(t, 10, e.LogLen(), "every successful apply grows the log by one")
}

func TestEngine_ReplaceCommitsOnMatch(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 1, Y: 2, Z: 3}

	_, ok := e.ApplyTransaction(replace(at, stone, water))
	require.True(t, ok, "expectation matches the defaulting read of an absent cell")
	assert.Equal(t, water, e.Snapshot().StateOrDefault(at))
}

func TestEngine_ReplaceRejectionTouchesNothing(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 1, Y: 2, Z: 3}
	_, ok := e.ApplyTransaction(set(at, water))
	require.True(t, ok)

	before := e.Snapshot()
	_, ok = e.ApplyTransaction(replace(at, stone, stateA))
	assert.False(t, ok, "expectation does not match current state")

	after := e.Snapshot()
	assert.Equal(t, before.Version(), after.Version(), "no new grid version")
	assert.Equal(t, 1, e.LogLen(), "nothing appended")
	assert.Equal(t, water, after.StateOrDefault(at))
}

func TestEngine_UndoRestoresEarlierWrite(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 0, Y: 0, Z: 0}

	_, ok := e.ApplyTransaction(set(at, stateA))
	require.True(t, ok)
	overwrite, ok := e.ApplyTransaction(set(at, stateB))
	require.True(t, ok)

	_, ok = e.ApplyTransaction(undo(overwrite.ID))
	require.True(t, ok)
	assert.Equal(t, stateA, e.Snapshot().StateOrDefault(at))
}

func TestEngine_UndoIsIdempotent(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 0, Y: 0, Z: 0}

	_, _ = e.ApplyTransaction(set(at, stateA))
	overwrite, _ := e.ApplyTransaction(set(at, stateB))

	_, ok := e.ApplyTransaction(undo(overwrite.ID))
	require.True(t, ok)
	once := e.Snapshot().StateOrDefault(at)

	_, ok = e.ApplyTransaction(undo(overwrite.ID))
	require.True(t, ok, "undoing an already-undone target is legal")
	assert.Equal(t, once, e.Snapshot().StateOrDefault(at))
}

func TestEngine_UndoOfUnknownTargetRejected(t *testing.T) {
	e := New(stone, WithCellSize(16))

	_, ok := e.ApplyTransaction(undo(txlog.TransactionID{Major: 42}))
	assert.False(t, ok)
	assert.Equal(t, 0, e.LogLen(), "rejected undo appends nothing")
}

func TestEngine_UndoOfUndoCommitsButTargetStaysDropped(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 0, Y: 0, Z: 0}

	_, _ = e.ApplyTransaction(set(at, stateA))
	overwrite, _ := e.ApplyTransaction(set(at, stateB))
	firstUndo, ok := e.ApplyTransaction(undo(overwrite.ID))
	require.True(t, ok)
	require.Equal(t, stateA, e.Snapshot().StateOrDefault(at))

	// An undo of an undo commits (its chain resolves to the coordinate)
	// but replay removes every undone transaction outright, so the
	// overwrite stays dropped.
	secondUndo, ok := e.ApplyTransaction(undo(firstUndo.ID))
	require.True(t, ok)
	assert.Equal(t, 4, e.LogLen())
	assert.Equal(t, txlog.TransactionID{Major: 3}, secondUndo.ID)
	assert.Equal(t, stateA, e.Snapshot().StateOrDefault(at))
}

func TestEngine_BoundsRejectionCommitsNothing(t *testing.T) {
	e := New(stone, WithCellSize(16))

	_, ok := e.ApplyTransaction(set(world.Coord{X: 0, Y: 0, Z: 16}, water))
	assert.False(t, ok)
	assert.Equal(t, 0, e.LogLen())
	assert.Equal(t, uint64(0), e.Snapshot().Version())
}

func TestEngine_MissingCoordinatePanics(t *testing.T) {
	e := New(stone, WithCellSize(16))

	assert.Panics(t, func() {
		e.ApplyTransaction(txlog.Pending{Op: txlog.SetOp(water)})
	})
	assert.Panics(t, func() {
		e.ApplyTransaction(txlog.Pending{Op: txlog.ReplaceOp(stone, water)})
	})
}

func TestEngine_UndoWithCoordinatePanics(t *testing.T) {
	e := New(stone, WithCellSize(16))
	c := world.Coord{X: 0, Y: 0, Z: 0}
	committed, _ := e.ApplyTransaction(set(c, water))

	assert.Panics(t, func() {
		e.ApplyTransaction(txlog.Pending{Op: txlog.UndoOp(committed.ID), Coord: &c})
	})
}

// Scenario: Set(A) commits as (0,0), Set(B) as (1,0), Undo((1,0)) as (2,0);
// the live state is back to A and the history pairs each transaction with
// the state before its own effect.
func TestEngine_HistoryPairsPrefixStates(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 0, Y: 0, Z: 0}

	first, _ := e.ApplyTransaction(set(at, stateA))
	second, _ := e.ApplyTransaction(set(at, stateB))
	third, ok := e.ApplyTransaction(undo(second.ID))
	require.True(t, ok)

	require.Equal(t, txlog.TransactionID{Major: 0}, first.ID)
	require.Equal(t, txlog.TransactionID{Major: 1}, second.ID)
	require.Equal(t, txlog.TransactionID{Major: 2}, third.ID)
	assert.Equal(t, stateA, e.Snapshot().StateOrDefault(at))

	entries := e.HistoryOf(at)
	require.Len(t, entries, 3)

	assert.Equal(t, first.ID, entries[0].Tx.ID)
	assert.Equal(t, stone, entries[0].Before, "nothing precedes the first write")

	assert.Equal(t, second.ID, entries[1].Tx.ID)
	assert.Equal(t, stateA, entries[1].Before)

	assert.Equal(t, third.ID, entries[2].Tx.ID)
	assert.Equal(t, stateA, entries[2].Before,
		"the undone overwrite is absent from the resolved timeline")
}

func TestEngine_OwnerAndStampStoredVerbatim(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 0, Y: 0, Z: 0}
	owner := uuid.MustParse("0192aa3e-7715-7d11-8001-0242ac120002")

	committed, ok := e.ApplyTransaction(txlog.Pending{
		Op:    txlog.SetOp(water),
		Owner: owner,
		Coord: &at,
	})
	require.True(t, ok)
	assert.Equal(t, owner, committed.Owner)

	anonymous, ok := e.ApplyTransaction(set(at, stateA))
	require.True(t, ok)
	assert.Equal(t, uuid.Nil, anonymous.Owner, "unknown actors carry the sentinel")
	assert.True(t, anonymous.Stamp.IsZero())
}

// Concurrent writers and snapshot readers must never observe a log length
// ahead of or behind the grid. Run with -race.
func TestEngine_ConcurrentApplyAndSnapshot(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 3, Y: 3, Z: 3}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				e.ApplyTransaction(set(at, water))
			}
		}()
	}
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				snap := e.Snapshot()
				snap.StateOrDefault(at)
				e.HistoryOf(at)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 200, e.LogLen())
	assert.Equal(t, water, e.Snapshot().StateOrDefault(at))
}
