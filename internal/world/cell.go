package world

import "github.com/rewindlabs/rewind/internal/storage"

// DefaultCellSize is the extent of a cell along each axis when none is
// configured.
const DefaultCellSize = 256

// Cell is a fixed-size cube of block identities plus auxiliary data: one
// persistent Volume of Blocks and one of AuxData, kept in lockstep. A Cell
// may carry an optional read-only reference to a naming dictionary; the
// reference is stored for consumers above the core and never consulted here.
//
// Cells are immutable. SetState returns a new Cell cloning only the touched
// layer of each volume.
type Cell struct {
	blocks   storage.Volume[Block]
	aux      storage.Volume[AuxData]
	size     int
	resolver Resolver
}

// NewCell returns a Cell of size^3 cells, every position at the default
// state.
func NewCell(size int, def BlockState) Cell {
	return Cell{
		blocks: storage.NewVolume(size, size, size, def.Block),
		aux:    storage.NewVolume(size, size, size, def.Aux),
		size:   size,
	}
}

// WithResolver returns a new Cell bound to the given naming dictionary.
func (c Cell) WithResolver(r Resolver) Cell {
	next := c
	next.resolver = r
	return next
}

// Resolver returns the bound naming dictionary, or nil when unbound.
func (c Cell) Resolver() Resolver {
	return c.resolver
}

// Size returns the cell extent along each axis.
func (c Cell) Size() int {
	return c.size
}

// State composes the BlockState at the local offset (x, y, z) from both
// volumes. Out-of-bounds positions read as the default state.
func (c Cell) State(x, y, z int) BlockState {
	return BlockState{
		Block: c.blocks.Get(x, y, z),
		Aux:   c.aux.Get(x, y, z),
	}
}

// SetState returns a new Cell with the local offset (x, y, z) holding s and
// ok=true. Out-of-bounds writes have no effect and return ok=false with the
// receiver unchanged.
func (c Cell) SetState(x, y, z int, s BlockState) (_ Cell, ok bool) {
	blocks, ok := c.blocks.Set(x, y, z, s.Block)
	if !ok {
		return c, false
	}
	aux, ok := c.aux.Set(x, y, z, s.Aux)
	if !ok {
		// Both volumes share one extent; a second rejection here would mean
		// they have drifted apart.
		panic("world: cell volumes disagree on bounds")
	}
	next := c
	next.blocks = blocks
	next.aux = aux
	return next, true
}

// SharesLayer reports whether layer z of the block volumes of c and other
// are backed by the same matrix. Used to verify structural sharing.
func (c Cell) SharesLayer(other Cell, z int) bool {
	return c.blocks.SharesLayer(other.blocks, z)
}
