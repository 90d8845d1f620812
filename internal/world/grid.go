package world

// Grid is a conceptually infinite 2-D map of Cells keyed by cell-aligned
// coordinate. Cells materialize lazily on first write to a previously-absent
// key and, once present, are only ever superseded by new versions sharing
// untouched substructure, never removed.
//
// Grids are persistent values: SetState returns a new Grid whose cell table
// shares every untouched Cell with its predecessor. The version counter
// increments once per successful write, so two snapshots with equal versions
// are the same grid state.
//
// The grid key floors the X and Y axes to the cell size; the Z axis
// addresses the cell's vertical extent [0, cellSize) directly, and writes
// outside it are bounds-rejected.
type Grid struct {
	cells    map[CellCoord]Cell
	def      BlockState
	cellSize int
	resolver Resolver
	version  uint64
}

// NewGrid returns an empty Grid with the given cell size and default state.
func NewGrid(cellSize int, def BlockState) Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return Grid{
		cells:    map[CellCoord]Cell{},
		def:      def,
		cellSize: cellSize,
	}
}

// WithResolver returns a new Grid that binds the given naming dictionary to
// every cell it materializes from now on.
func (g Grid) WithResolver(r Resolver) Grid {
	next := g
	next.resolver = r
	return next
}

// CellSize returns the configured cell extent.
func (g Grid) CellSize() int {
	return g.cellSize
}

// Default returns the configured default state.
func (g Grid) Default() BlockState {
	return g.def
}

// Version returns the write version of this grid value. Rejected writes do
// not produce a new version.
func (g Grid) Version() uint64 {
	return g.version
}

// CellKey returns the cell-aligned key containing the block coordinate
// (x, y).
func (g Grid) CellKey(x, y int) CellCoord {
	return CellCoord{X: floorDiv(x, g.cellSize), Y: floorDiv(y, g.cellSize)}
}

// CellAt returns the Cell at the given key, if one has materialized.
func (g Grid) CellAt(key CellCoord) (Cell, bool) {
	c, ok := g.cells[key]
	return c, ok
}

// CellCount returns the number of materialized cells.
func (g Grid) CellCount() int {
	return len(g.cells)
}

// State returns the state at c and ok=true, or ok=false when no Cell has
// materialized at the containing coordinate. A materialized Cell answers
// with its defaulting read.
func (g Grid) State(c Coord) (_ BlockState, ok bool) {
	cell, ok := g.cells[g.CellKey(c.X, c.Y)]
	if !ok {
		return BlockState{}, false
	}
	x, y := floorMod(c.X, g.cellSize), floorMod(c.Y, g.cellSize)
	return cell.State(x, y, c.Z), true
}

// StateOrDefault returns the state at c, substituting the Grid's default for
// an absent Cell instead of signaling absence.
func (g Grid) StateOrDefault(c Coord) BlockState {
	if s, ok := g.State(c); ok {
		return s
	}
	return g.def
}

// SetState returns a new Grid with c holding s and ok=true, materializing an
// all-default Cell when the containing coordinate was absent. A write
// outside the cell's vertical extent is rejected: ok=false and the receiver
// is returned unchanged, with no cell materialized.
func (g Grid) SetState(c Coord, s BlockState) (_ Grid, ok bool) {
	key := g.CellKey(c.X, c.Y)
	cell, present := g.cells[key]
	if !present {
		cell = NewCell(g.cellSize, g.def)
		if g.resolver != nil {
			cell = cell.WithResolver(g.resolver)
		}
	}

	x, y := floorMod(c.X, g.cellSize), floorMod(c.Y, g.cellSize)
	cell, ok = cell.SetState(x, y, c.Z, s)
	if !ok {
		return g, false
	}

	cells := make(map[CellCoord]Cell, len(g.cells)+1)
	for k, v := range g.cells {
		cells[k] = v
	}
	cells[key] = cell

	next := g
	next.cells = cells
	next.version = g.version + 1
	return next, true
}
