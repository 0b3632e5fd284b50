package components

// Position is an organism's grid cell.
type Position struct {
	X, Y int
}

// Add returns p displaced by (dx, dy).
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// MaxNeighbors is the neighborhood size when diagonals are sensed.
const MaxNeighbors = 8

// Neighborhood is the occupancy snapshot sensed around an organism.
// Only the first Size entries are meaningful: 4 orthogonal or 8 with
// diagonals.
type Neighborhood struct {
	Occupied [MaxNeighbors]bool
	Size     int
}

// Cells returns the meaningful part of the snapshot.
func (n *Neighborhood) Cells() []bool {
	return n.Occupied[:n.Size]
}
