// Package world owns the simulation grid and the organisms living on it.
//
// Organisms are ark entities. The grid stores entity handles, and every
// mutation goes through World so that the roster and the grid always agree:
// for every live organism, the cell at its position holds its handle, and
// every organism cell holds a live organism.
package world

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/systems"
)

var (
	// ErrInvariant marks a contract violation by the caller or a broken
	// roster/grid bookkeeping. It is never recoverable.
	ErrInvariant = errors.New("world invariant violated")
	// ErrOutOfBounds is returned for coordinates off the grid.
	ErrOutOfBounds = errors.New("cell out of bounds")
)

// Options configures a new World.
type Options struct {
	Width    int
	Height   int
	Diagonal bool // sense 8 neighbors instead of 4
}

// StepStats counts movement outcomes.
type StepStats struct {
	Moves   int // successful moves
	Blocked int // moves rejected because the destination was occupied
}

// Add accumulates other into s.
func (s *StepStats) Add(other StepStats) {
	s.Moves += other.Moves
	s.Blocked += other.Blocked
}

// Attempts is the number of movement decisions taken.
func (s StepStats) Attempts() int {
	return s.Moves + s.Blocked
}

// Member is a snapshot of one organism and where it stands.
type Member struct {
	Entity   ecs.Entity
	Position components.Position
	Organism components.Organism
}

// View is the read-only surface of a World handed to strategies and
// observers.
type View interface {
	Width() int
	Height() int
	Diagonal() bool
	Population() int
	FreeCells() int
	Cell(x, y int) Cell
	Members() []Member
	Organism(e ecs.Entity) (components.Organism, bool)
	Position(e ecs.Entity) (components.Position, bool)
	LastStep() StepStats
}

// World holds the grid and the organism arena.
type World struct {
	width, height int
	diagonal      bool
	rng           *rand.Rand

	ecs    *ecs.World
	mapper *ecs.Map3[components.Position, components.Neighborhood, components.Organism]
	filter *ecs.Filter3[components.Position, components.Neighborhood, components.Organism]
	posMap *ecs.Map[components.Position]
	orgMap *ecs.Map[components.Organism]

	grid       []Cell
	order      []ecs.Entity // scratch buffer for shuffled iteration
	population int
	barriers   int
	nextID     uint32
	lastStep   StepStats
}

var _ View = (*World)(nil)

// New creates an empty world. rng drives placement and iteration order.
func New(opts Options, rng *rand.Rand) (*World, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("world size must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if rng == nil {
		return nil, errors.New("world: rng is required")
	}

	ew := ecs.NewWorld()
	return &World{
		width:    opts.Width,
		height:   opts.Height,
		diagonal: opts.Diagonal,
		rng:      rng,
		ecs:      ew,
		mapper:   ecs.NewMap3[components.Position, components.Neighborhood, components.Organism](ew),
		filter:   ecs.NewFilter3[components.Position, components.Neighborhood, components.Organism](ew),
		posMap:   ecs.NewMap[components.Position](ew),
		orgMap:   ecs.NewMap[components.Organism](ew),
		grid:     make([]Cell, opts.Width*opts.Height),
		nextID:   1,
	}, nil
}

// Reseed replaces the source of placement and iteration randomness.
func (w *World) Reseed(seed int64) {
	w.rng = rand.New(rand.NewSource(seed))
}

func (w *World) Width() int      { return w.width }
func (w *World) Height() int     { return w.height }
func (w *World) Diagonal() bool  { return w.diagonal }
func (w *World) Population() int { return w.population }
func (w *World) Barriers() int   { return w.barriers }

// FreeCells is the number of cells neither a barrier nor an organism holds.
func (w *World) FreeCells() int {
	return len(w.grid) - w.barriers - w.population
}

// SetStaticBarrier marks (x, y) as permanently occupied. Terrain generators
// call it before any organism is added.
func (w *World) SetStaticBarrier(x, y int) error {
	if !w.InBounds(x, y) {
		return fmt.Errorf("barrier at (%d,%d) on %dx%d grid: %w", x, y, w.width, w.height, ErrOutOfBounds)
	}
	i := w.index(x, y)
	switch w.grid[i].Kind {
	case CellBarrier:
		return nil
	case CellOrganism:
		return fmt.Errorf("barrier at (%d,%d) over organism: %w", x, y, ErrInvariant)
	}
	w.grid[i] = Cell{Kind: CellBarrier}
	w.barriers++
	return nil
}

// AddOrganism assigns org an ID and places it on a uniformly random empty
// cell.
func (w *World) AddOrganism(org components.Organism) (ecs.Entity, error) {
	empty := w.emptyCells()
	if len(empty) == 0 {
		return ecs.Entity{}, fmt.Errorf("add organism: no free cell: %w", ErrInvariant)
	}
	i := empty[w.rng.Intn(len(empty))]

	org.ID = w.nextID
	w.nextID++

	pos := components.Position{X: i % w.width, Y: i / w.width}
	nb := components.Neighborhood{Size: systems.NeighborCount(w.diagonal)}
	e := w.mapper.NewEntity(&pos, &nb, &org)

	w.grid[i] = Cell{Kind: CellOrganism, Entity: e}
	w.population++
	return e, nil
}

// Kill removes the organism from the arena and vacates its cell.
func (w *World) Kill(e ecs.Entity) error {
	if !w.ecs.Alive(e) || !w.posMap.Has(e) {
		return fmt.Errorf("kill %v: not in world: %w", e, ErrInvariant)
	}
	pos := *w.posMap.Get(e)
	i := w.index(pos.X, pos.Y)
	if c := w.grid[i]; c.Kind != CellOrganism || c.Entity != e {
		return fmt.Errorf("kill %v: cell (%d,%d) holds %s: %w", e, pos.X, pos.Y, c.Kind, ErrInvariant)
	}

	w.grid[i] = Cell{}
	w.ecs.RemoveEntity(e)
	w.population--
	return nil
}

// Reset clears every organism from the grid and re-places all of them on
// independently chosen random empty cells. Barriers stay.
func (w *World) Reset() error {
	if w.population > len(w.grid)-w.barriers {
		return fmt.Errorf("reset: %d organisms for %d free cells: %w",
			w.population, len(w.grid)-w.barriers, ErrInvariant)
	}

	for i, c := range w.grid {
		if c.Kind == CellOrganism {
			w.grid[i] = Cell{}
		}
	}

	order := w.shuffledEntities()
	empty := w.emptyCells()
	for n, e := range order {
		// Partial Fisher-Yates: pick from the not-yet-used tail.
		j := n + w.rng.Intn(len(empty)-n)
		empty[n], empty[j] = empty[j], empty[n]
		i := empty[n]

		pos, nb, _ := w.mapper.Get(e)
		*pos = components.Position{X: i % w.width, Y: i / w.width}
		*nb = components.Neighborhood{Size: systems.NeighborCount(w.diagonal)}
		w.grid[i] = Cell{Kind: CellOrganism, Entity: e}
	}
	return nil
}

// Step moves every organism once, in a freshly shuffled order. Each
// organism senses the grid as left by the organisms before it.
func (w *World) Step() StepStats {
	var stats StepStats
	for _, e := range w.shuffledEntities() {
		pos, nb, org := w.mapper.Get(e)

		w.sense(*pos, nb)
		action := systems.DecideAction(org, systems.ComputeSensors(*pos, *nb, w.width, w.height))

		dx, dy := action.Delta()
		nx, ny := w.clamp(pos.X+dx, pos.Y+dy)
		dest := w.index(nx, ny)
		if !w.grid[dest].Free() {
			// Includes a clamped move back onto the organism's own cell.
			stats.Blocked++
			continue
		}

		w.grid[w.index(pos.X, pos.Y)] = Cell{}
		w.grid[dest] = Cell{Kind: CellOrganism, Entity: e}
		pos.X, pos.Y = nx, ny
		stats.Moves++
	}
	w.lastStep = stats
	return stats
}

// LastStep returns the movement counts of the most recent Step.
func (w *World) LastStep() StepStats {
	return w.lastStep
}

// sense refreshes the occupancy snapshot around pos.
func (w *World) sense(pos components.Position, nb *components.Neighborhood) {
	offsets := w.offsets()
	nb.Size = len(offsets)
	for i, d := range offsets {
		nb.Occupied[i] = w.occupied(pos.X+d[0], pos.Y+d[1])
	}
}

// shuffledEntities collects all live organisms and shuffles them. The
// returned slice is reused by the next call.
func (w *World) shuffledEntities() []ecs.Entity {
	w.order = w.order[:0]
	query := w.filter.Query()
	for query.Next() {
		w.order = append(w.order, query.Entity())
	}
	w.rng.Shuffle(len(w.order), func(i, j int) {
		w.order[i], w.order[j] = w.order[j], w.order[i]
	})
	return w.order
}

// Members returns a snapshot of every organism in arena order.
func (w *World) Members() []Member {
	members := make([]Member, 0, w.population)
	query := w.filter.Query()
	for query.Next() {
		pos, _, org := query.Get()
		members = append(members, Member{Entity: query.Entity(), Position: *pos, Organism: *org})
	}
	return members
}

// Organism returns a copy of the organism behind e.
func (w *World) Organism(e ecs.Entity) (components.Organism, bool) {
	if !w.ecs.Alive(e) || !w.orgMap.Has(e) {
		return components.Organism{}, false
	}
	return *w.orgMap.Get(e), true
}

// Position returns where e stands.
func (w *World) Position(e ecs.Entity) (components.Position, bool) {
	if !w.ecs.Alive(e) || !w.posMap.Has(e) {
		return components.Position{}, false
	}
	return *w.posMap.Get(e), true
}

// CheckInvariants verifies the roster/grid dual bookkeeping.
func (w *World) CheckInvariants() error {
	roster := 0
	query := w.filter.Query()
	for query.Next() {
		e := query.Entity()
		pos, _, _ := query.Get()
		roster++
		if !w.InBounds(pos.X, pos.Y) {
			query.Close()
			return fmt.Errorf("organism %v at (%d,%d) off grid: %w", e, pos.X, pos.Y, ErrInvariant)
		}
		if c := w.Cell(pos.X, pos.Y); c.Kind != CellOrganism || c.Entity != e {
			query.Close()
			return fmt.Errorf("organism %v at (%d,%d) but cell holds %s %v: %w", e, pos.X, pos.Y, c.Kind, c.Entity, ErrInvariant)
		}
	}

	cells, barriers := 0, 0
	for _, c := range w.grid {
		switch c.Kind {
		case CellOrganism:
			cells++
			if !w.ecs.Alive(c.Entity) {
				return fmt.Errorf("cell holds dead entity %v: %w", c.Entity, ErrInvariant)
			}
		case CellBarrier:
			barriers++
		}
	}
	if cells != roster || roster != w.population {
		return fmt.Errorf("roster %d, organism cells %d, population %d: %w", roster, cells, w.population, ErrInvariant)
	}
	if barriers != w.barriers {
		return fmt.Errorf("barrier cells %d, barrier count %d: %w", barriers, w.barriers, ErrInvariant)
	}
	return nil
}
