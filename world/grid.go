package world

import "github.com/mlange-42/ark/ecs"

// CellKind tags what occupies a grid cell.
type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellBarrier
	CellOrganism
)

func (k CellKind) String() string {
	switch k {
	case CellEmpty:
		return "empty"
	case CellBarrier:
		return "barrier"
	case CellOrganism:
		return "organism"
	}
	return "unknown"
}

// Cell is one grid cell. Entity is only meaningful for CellOrganism and is
// an advisory handle into the world's arena, never ownership.
type Cell struct {
	Kind   CellKind
	Entity ecs.Entity
}

// Free reports whether an organism may move into the cell.
func (c Cell) Free() bool {
	return c.Kind == CellEmpty
}

// Sensing offsets. Orthogonal order is up, down, left, right; diagonal order
// is row-major around the centre.
var (
	orthogonalOffsets = [][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}
	diagonalOffsets   = [][2]int{
		{-1, -1}, {0, -1}, {1, -1},
		{-1, 0}, {1, 0},
		{-1, 1}, {0, 1}, {1, 1},
	}
)

func (w *World) index(x, y int) int {
	return y*w.width + x
}

// InBounds reports whether (x, y) lies on the grid.
func (w *World) InBounds(x, y int) bool {
	return x >= 0 && x < w.width && y >= 0 && y < w.height
}

// Cell returns the cell at (x, y), which must be in bounds.
func (w *World) Cell(x, y int) Cell {
	return w.grid[w.index(x, y)]
}

// occupied treats out-of-bounds reads as empty.
func (w *World) occupied(x, y int) bool {
	if !w.InBounds(x, y) {
		return false
	}
	return !w.grid[w.index(x, y)].Free()
}

// clamp keeps a destination on the grid. Edges are solid, not toroidal.
func (w *World) clamp(x, y int) (int, int) {
	return min(max(x, 0), w.width-1), min(max(y, 0), w.height-1)
}

func (w *World) offsets() [][2]int {
	if w.diagonal {
		return diagonalOffsets
	}
	return orthogonalOffsets
}

// emptyCells lists the indices of cells free for placement.
func (w *World) emptyCells() []int {
	cells := make([]int, 0, len(w.grid)-w.population-w.barriers)
	for i, c := range w.grid {
		if c.Free() {
			cells = append(cells, i)
		}
	}
	return cells
}
