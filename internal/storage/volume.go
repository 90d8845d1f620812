package storage

// Volume is an immutable 3-D grid of fixed (width, height, depth): a
// persistent Array of depth Matrix layers, all sharing (width, height) and
// the default value.
//
// Get outside bounds returns the default value. Set outside bounds is
// rejected with no effect; in bounds it clones only layer z, leaving every
// other layer shared with the prior version.
type Volume[T any] struct {
	layers Array[Matrix[T]]
	def    T
	width  int
	height int
	depth  int
}

// NewVolume returns a Volume of the given extent with every cell at the
// default value. All layers initially share one empty sparse matrix.
func NewVolume[T any](width, height, depth int, def T) Volume[T] {
	layer := NewMatrix(width, height, def)
	return Volume[T]{
		layers: NewArrayFilled(depth, layer),
		def:    def,
		width:  width,
		height: height,
		depth:  depth,
	}
}

// Get returns the element at (x, y, z), or the default value when the
// position is out of bounds or never written.
func (v Volume[T]) Get(x, y, z int) T {
	if !v.inBounds(x, y, z) {
		return v.def
	}
	return v.layers.Get(z).Get(x, y)
}

// Set returns a new Volume with (x, y, z) holding element and ok=true. An
// out-of-bounds write has no effect: the receiver is returned unchanged with
// ok=false. Only layer z is cloned; all other layers are shared.
func (v Volume[T]) Set(x, y, z int, element T) (_ Volume[T], ok bool) {
	if !v.inBounds(x, y, z) {
		return v, false
	}
	next := v
	next.layers = v.layers.Set(z, v.layers.Get(z).Set(x, y, element))
	return next, true
}

// Width returns the x extent.
func (v Volume[T]) Width() int { return v.width }

// Height returns the y extent.
func (v Volume[T]) Height() int { return v.height }

// Depth returns the z extent (the layer count).
func (v Volume[T]) Depth() int { return v.depth }

// Default returns the volume's default value.
func (v Volume[T]) Default() T { return v.def }

// SharesLayer reports whether layer z of v and other are backed by the same
// matrix. Used to verify that writes clone only the touched layer.
func (v Volume[T]) SharesLayer(other Volume[T], z int) bool {
	return v.layers.SharesSlot(other.layers, z)
}

func (v Volume[T]) inBounds(x, y, z int) bool {
	return x >= 0 && x < v.width &&
		y >= 0 && y < v.height &&
		z >= 0 && z < v.depth
}
