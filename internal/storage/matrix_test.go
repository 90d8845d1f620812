package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatrix_StartsSparseAndEmpty(t *testing.T) {
	m := NewMatrix(8, 8, "air")

	assert.Equal(t, 0, m.Entries())
	assert.Equal(t, "air", m.Get(3, 3))
}

func TestMatrix_SetThenGet(t *testing.T) {
	m := NewMatrix(8, 8, 0)
	m2 := m.Set(2, 5, 17)

	assert.Equal(t, 17, m2.Get(2, 5))
	assert.Equal(t, 0, m.Get(2, 5), "source matrix must be unchanged")
	assert.Equal(t, 1, m2.Entries())
}

func TestMatrix_SetExistingCoordinateReplacesInPlace(t *testing.T) {
	m := NewMatrix(4, 4, 0).Set(1, 1, 5).Set(1, 1, 9)

	assert.Equal(t, 9, m.Get(1, 1))
	assert.Equal(t, 1, m.Entries(), "replacing a written cell must not grow the list")
}

func TestMatrix_GetOutOfBoundsReturnsDefault(t *testing.T) {
	for _, m := range []Matrix[string]{
		NewMatrix(4, 4, "stone"),
		NewDenseMatrix(4, 4, "stone"),
	} {
		assert.Equal(t, "stone", m.Get(-1, 0))
		assert.Equal(t, "stone", m.Get(0, 4))
		assert.Equal(t, "stone", m.Get(99, 99))
	}
}

func TestMatrix_SetOutOfBoundsPanics(t *testing.T) {
	for _, m := range []Matrix[int]{
		NewMatrix(4, 4, 0),
		NewDenseMatrix(4, 4, 0),
	} {
		assert.Panics(t, func() { m.Set(4, 0, 1) })
		assert.Panics(t, func() { m.Set(0, -1, 1) })
	}
}

func TestDenseMatrix_SetThenGet(t *testing.T) {
	m := NewDenseMatrix(4, 4, 0)
	m2 := m.Set(3, 1, 7)

	assert.Equal(t, 7, m2.Get(3, 1))
	assert.Equal(t, 0, m.Get(3, 1))
	assert.Equal(t, 16, m2.Entries())
}

func TestDenseWouldShrink(t *testing.T) {
	// int32 values: coordinate entries cost far more than the value, so a
	// small plane flips to "dense would shrink" after a handful of writes.
	m := NewMatrix(2, 2, int32(0))
	require.False(t, DenseWouldShrink(m), "empty sparse matrix is minimal")

	m = m.Set(0, 0, 1).Set(0, 1, 2).Set(1, 0, 3)
	assert.True(t, DenseWouldShrink(m))

	assert.False(t, DenseWouldShrink(NewDenseMatrix(2, 2, int32(0))),
		"dense matrices never signal")
}
