package world

// Coord is an absolute block coordinate.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

// CellCoord keys a Cell in the Grid: the X and Y axes of a block coordinate
// floored to the cell size, in cell units.
type CellCoord struct {
	X, Y int
}

// floorDiv divides rounding toward negative infinity, so negative block
// coordinates land in the right cell.
func floorDiv(a, size int) int {
	q := a / size
	if a%size != 0 && (a < 0) != (size < 0) {
		q--
	}
	return q
}

// floorMod returns the non-negative offset of a within its cell.
func floorMod(a, size int) int {
	m := a % size
	if m < 0 {
		m += size
	}
	return m
}
