package engine

import (
	"log/slog"
	"sync"

	"github.com/rewindlabs/rewind/internal/txlog"
	"github.com/rewindlabs/rewind/internal/world"
)

// Engine is the façade over one Grid and one transaction log.
//
// All writes funnel through ApplyTransaction under the two-lock discipline
// described in the package comment. The zero value is not usable; construct
// with New.
type Engine struct {
	gridMu sync.RWMutex
	grid   world.Grid

	logMu sync.RWMutex
	log   *txlog.Log

	def world.BlockState
}

// Option configures an Engine at construction time.
type Option func(*options)

type options struct {
	cellSize int
	resolver world.Resolver
}

// WithCellSize overrides the cell extent (default world.DefaultCellSize).
func WithCellSize(size int) Option {
	return func(o *options) {
		o.cellSize = size
	}
}

// WithResolver binds a naming dictionary to every cell the grid
// materializes. The core stores the reference for consumers above it and
// never calls it.
func WithResolver(r world.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// New returns an Engine over an empty Grid and an empty log, with
// defaultState substituted wherever nothing has ever been written.
func New(defaultState world.BlockState, opts ...Option) *Engine {
	o := options{cellSize: world.DefaultCellSize}
	for _, opt := range opts {
		opt(&o)
	}

	grid := world.NewGrid(o.cellSize, defaultState)
	if o.resolver != nil {
		grid = grid.WithResolver(o.resolver)
	}

	return &Engine{
		grid: grid,
		log:  txlog.NewLog(),
		def:  defaultState,
	}
}

// ApplyTransaction atomically applies p to the (Grid, Log) pair.
//
// On commit it returns the transaction wrapped with its new id and ok=true.
// On rejection (a Replace whose expectation missed, an Undo of an unknown
// target, or a bounds-rejected write) it returns ok=false and neither the
// Grid nor the log gains a new version. A Set or Replace without a
// coordinate, or an Undo with one, panics: that is a caller bug, not a
// rejection.
func (e *Engine) ApplyTransaction(p txlog.Pending) (txlog.Committed, bool) {
	// Exclusive on both resources, Grid first, released together.
	e.gridMu.Lock()
	defer e.gridMu.Unlock()
	e.logMu.Lock()
	defer e.logMu.Unlock()

	switch p.Op.Kind {
	case txlog.OpSet, txlog.OpReplace:
		return e.applyWrite(p)
	case txlog.OpUndo:
		return e.applyUndo(p)
	default:
		panic("engine: unknown operation kind")
	}
}

// applyWrite handles Set and Replace under both locks.
func (e *Engine) applyWrite(p txlog.Pending) (txlog.Committed, bool) {
	if p.Coord == nil {
		panic("engine: " + p.Op.Kind.String() + " transaction without coordinate")
	}
	c := *p.Coord

	if p.Op.Kind == txlog.OpReplace {
		current := e.grid.StateOrDefault(c)
		if current != p.Op.Expected {
			slog.Debug("replace rejected: expectation missed",
				"coord", c, "expected", p.Op.Expected, "current", current)
			return txlog.Committed{}, false
		}
	}

	grid, ok := e.grid.SetState(c, p.Op.New)
	if !ok {
		slog.Debug("write rejected: out of cell bounds", "coord", c)
		return txlog.Committed{}, false
	}

	e.grid = grid
	committed := e.log.Append(p)
	slog.Debug("transaction committed",
		"id", committed.ID, "kind", p.Op.Kind.String(), "coord", c)
	return committed, true
}

// applyUndo handles Undo under both locks. The Undo is appended first so it
// is visible to the history query that recomputes the coordinate, then the
// replayed state is written into the Grid.
func (e *Engine) applyUndo(p txlog.Pending) (txlog.Committed, bool) {
	if p.Coord != nil {
		panic("engine: undo transaction with coordinate")
	}

	if _, ok := e.log.Lookup(p.Op.Target); !ok {
		slog.Debug("undo rejected: unknown target", "target", p.Op.Target)
		return txlog.Committed{}, false
	}

	committed := e.log.Append(p)

	coord, ok := e.log.ResolvedCoordinateOf(committed.ID)
	if !ok {
		// Every undo chain ends at a Set or Replace, which always carries a
		// coordinate; a miss here means the log itself is corrupt.
		panic("engine: undo chain does not resolve to a coordinate")
	}

	state := txlog.Replay(e.log.HistoryOf(coord), e.def)
	grid, ok := e.grid.SetState(coord, state)
	if !ok {
		panic("engine: replayed coordinate rejected by grid bounds")
	}

	e.grid = grid
	slog.Debug("undo committed",
		"id", committed.ID, "target", p.Op.Target, "coord", coord)
	return committed, true
}

// Snapshot returns the current Grid value: a structurally shared copy that
// is safe to read indefinitely with no further synchronization.
func (e *Engine) Snapshot() world.Grid {
	e.gridMu.RLock()
	defer e.gridMu.RUnlock()
	return e.grid
}

// Transactions returns a copy of every committed transaction in ascending
// id order, e.g. for a persistence layer to archive.
func (e *Engine) Transactions() []txlog.Committed {
	e.logMu.RLock()
	defer e.logMu.RUnlock()
	return e.log.Ascending()
}

// LogLen returns the number of committed transactions.
func (e *Engine) LogLen() int {
	e.logMu.RLock()
	defer e.logMu.RUnlock()
	return e.log.Len()
}
