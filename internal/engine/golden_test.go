package engine

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/rewindlabs/rewind/internal/world"
)

// historyTrace is the serialized form of a coordinate's history used for
// golden comparison. Regenerate with: go test ./internal/engine -update
type historyTrace struct {
	Coord   world.Coord      `json:"coord"`
	Final   world.BlockState `json:"final"`
	Entries []HistoryEntry   `json:"entries"`
}

// The set/set/undo scenario, captured end to end: ids, prefix states, and
// the live state after the retroactive undo.
func TestHistoryTrace_Golden(t *testing.T) {
	e := New(stone, WithCellSize(16))
	at := world.Coord{X: 0, Y: 0, Z: 0}

	_, ok := e.ApplyTransaction(set(at, stateA))
	require.True(t, ok)
	overwrite, ok := e.ApplyTransaction(set(at, stateB))
	require.True(t, ok)
	_, ok = e.ApplyTransaction(undo(overwrite.ID))
	require.True(t, ok)

	trace := historyTrace{
		Coord:   at,
		Final:   e.Snapshot().StateOrDefault(at),
		Entries: e.HistoryOf(at),
	}

	data, err := json.MarshalIndent(trace, "", "  ")
	require.NoError(t, err)
	data = append(data, '\n')

	g := goldie.New(t)
	g.Assert(t, "history_trace", data)
}
