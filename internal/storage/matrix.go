package storage

import (
	"fmt"
	"unsafe"
)

// Matrix is an immutable 2-D grid of fixed (width, height) with a default
// value.
//
// Get at a position outside [0,width)x[0,height), or at a position never
// written, returns the default value and never fails. Set returns a new
// Matrix sharing all untouched cells with the receiver; writing out of
// bounds is a precondition violation and panics (Volume guards bounds before
// reaching a layer).
//
// Two representations implement the interface and are chosen per instance:
// NewMatrix starts sparse, NewDenseMatrix is individually addressable in
// O(1). Nothing in this package converts between them; DenseWouldShrink
// only signals when repacking would pay off.
type Matrix[T any] interface {
	Get(x, y int) T
	Set(x, y int, element T) Matrix[T]
	Width() int
	Height() int

	// Entries returns the number of explicitly stored cells: width*height
	// for the dense representation, the non-default write count for the
	// sparse one.
	Entries() int
}

// point is a cell coordinate in a sparse matrix's coordinate list.
type point struct {
	x, y int
}

// sparseMatrix stores only written cells: a coordinate list and a parallel
// persistent array of values. Get scans the list linearly, so cost grows
// with the number of non-default cells.
type sparseMatrix[T any] struct {
	width, height int
	def           T
	coords        Array[point]
	values        Array[T]
}

// NewMatrix returns an empty Matrix of the given extent. The sparse
// representation is used: a fresh plane is almost entirely default-valued.
func NewMatrix[T any](width, height int, def T) Matrix[T] {
	return &sparseMatrix[T]{width: width, height: height, def: def}
}

func (m *sparseMatrix[T]) Get(x, y int) T {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return m.def
	}
	for i := 0; i < m.coords.Len(); i++ {
		if m.coords.Get(i) == (point{x, y}) {
			return m.values.Get(i)
		}
	}
	return m.def
}

func (m *sparseMatrix[T]) Set(x, y int, element T) Matrix[T] {
	checkBounds(x, y, m.width, m.height)
	next := &sparseMatrix[T]{width: m.width, height: m.height, def: m.def}
	for i := 0; i < m.coords.Len(); i++ {
		if m.coords.Get(i) == (point{x, y}) {
			next.coords = m.coords
			next.values = m.values.Set(i, element)
			return next
		}
	}
	next.coords = m.coords.PushBack(point{x, y})
	next.values = m.values.PushBack(element)
	return next
}

func (m *sparseMatrix[T]) Width() int   { return m.width }
func (m *sparseMatrix[T]) Height() int  { return m.height }
func (m *sparseMatrix[T]) Entries() int { return m.coords.Len() }

// denseMatrix stores every cell in one persistent array of size
// width*height, individually addressable in O(1).
type denseMatrix[T any] struct {
	width, height int
	def           T
	cells         Array[T]
}

// NewDenseMatrix returns a Matrix of the given extent with every cell
// preallocated to the default value.
func NewDenseMatrix[T any](width, height int, def T) Matrix[T] {
	return &denseMatrix[T]{
		width:  width,
		height: height,
		def:    def,
		cells:  NewArrayFilled(width*height, def),
	}
}

func (m *denseMatrix[T]) Get(x, y int) T {
	if x < 0 || x >= m.width || y < 0 || y >= m.height {
		return m.def
	}
	return m.cells.Get(y*m.width + x)
}

func (m *denseMatrix[T]) Set(x, y int, element T) Matrix[T] {
	checkBounds(x, y, m.width, m.height)
	return &denseMatrix[T]{
		width:  m.width,
		height: m.height,
		def:    m.def,
		cells:  m.cells.Set(y*m.width+x, element),
	}
}

func (m *denseMatrix[T]) Width() int   { return m.width }
func (m *denseMatrix[T]) Height() int  { return m.height }
func (m *denseMatrix[T]) Entries() int { return m.width * m.height }

// DenseWouldShrink reports whether converting m to the dense representation
// would reduce its memory footprint, comparing the sparse footprint
// (entries x (coordinate size + value size)) against the dense one
// (width x height x value size). Always false for an already-dense matrix.
//
// Nothing acts on the signal here; repacking is left to callers extending
// the design.
func DenseWouldShrink[T any](m Matrix[T]) bool {
	sparse, ok := m.(*sparseMatrix[T])
	if !ok {
		return false
	}
	var zero T
	valueSize := uintptr(unsafe.Sizeof(zero))
	coordSize := uintptr(unsafe.Sizeof(point{}))
	sparseFootprint := uintptr(sparse.Entries()) * (coordSize + valueSize)
	denseFootprint := uintptr(sparse.width) * uintptr(sparse.height) * valueSize
	return denseFootprint < sparseFootprint
}

func checkBounds(x, y, width, height int) {
	if x < 0 || x >= width || y < 0 || y >= height {
		panic(fmt.Sprintf("storage: matrix write (%d,%d) out of range %dx%d", x, y, width, height))
	}
}
