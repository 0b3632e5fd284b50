package world

import (
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/systems"
)

func newTestWorld(t *testing.T, w, h int, diagonal bool, seed int64) *World {
	t.Helper()
	wld, err := New(Options{Width: w, Height: h, Diagonal: diagonal}, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return wld
}

// fixedOrganism always chooses action: every weight is zero except the
// output bias for that action.
func fixedOrganism(t *testing.T, diagonal bool, action components.Action) components.Organism {
	t.Helper()
	topo, err := systems.BrainTopology(diagonal, nil)
	require.NoError(t, err)
	g := make(neural.Genome, topo.GenomeLength())
	g[topo.Inputs*topo.Outputs+int(action)] = 1
	org, err := components.NewOrganism(g, topo)
	require.NoError(t, err)
	return org
}

func randomOrganism(t *testing.T, rng *rand.Rand, diagonal bool) components.Organism {
	t.Helper()
	topo, err := systems.BrainTopology(diagonal, []int{4})
	require.NoError(t, err)
	return systems.Breeder{Topology: topo}.Random(rng)
}

// place moves e to (x, y) directly, swapping with any organism already
// there, for building scenarios.
func place(t *testing.T, w *World, e ecs.Entity, x, y int) {
	t.Helper()
	target := w.Cell(x, y)
	require.NotEqual(t, CellBarrier, target.Kind)

	pos := w.posMap.Get(e)
	from := *pos
	w.grid[w.index(from.X, from.Y)] = Cell{}
	if target.Kind == CellOrganism && target.Entity != e {
		*w.posMap.Get(target.Entity) = from
		w.grid[w.index(from.X, from.Y)] = target
	}
	*pos = components.Position{X: x, Y: y}
	w.grid[w.index(x, y)] = Cell{Kind: CellOrganism, Entity: e}
}

func TestNewRejectsEmptyGrid(t *testing.T) {
	_, err := New(Options{Width: 0, Height: 4}, rand.New(rand.NewSource(1)))
	assert.Error(t, err)
}

func TestAddOrganism(t *testing.T) {
	w := newTestWorld(t, 4, 4, false, 1)
	rng := rand.New(rand.NewSource(2))

	for i := 0; i < 16; i++ {
		e, err := w.AddOrganism(randomOrganism(t, rng, false))
		require.NoError(t, err)
		org, ok := w.Organism(e)
		require.True(t, ok)
		assert.Equal(t, uint32(i+1), org.ID)
		require.NoError(t, w.CheckInvariants())
	}
	assert.Equal(t, 16, w.Population())
	assert.Equal(t, 0, w.FreeCells())

	_, err := w.AddOrganism(randomOrganism(t, rng, false))
	assert.ErrorIs(t, err, ErrInvariant)
}

func TestSingleOrganismMovesRight(t *testing.T) {
	w := newTestWorld(t, 4, 4, false, 1)
	e, err := w.AddOrganism(fixedOrganism(t, false, components.ActionRight))
	require.NoError(t, err)
	place(t, w, e, 0, 0)

	stats := w.Step()
	assert.Equal(t, StepStats{Moves: 1}, stats)

	pos, ok := w.Position(e)
	require.True(t, ok)
	assert.Equal(t, components.Position{X: 1, Y: 0}, pos)
	assert.True(t, w.Cell(0, 0).Free())
	assert.Equal(t, e, w.Cell(1, 0).Entity)
	require.NoError(t, w.CheckInvariants())
}

func TestMoveIntoWallIsBlocked(t *testing.T) {
	w := newTestWorld(t, 4, 4, false, 1)
	e, err := w.AddOrganism(fixedOrganism(t, false, components.ActionRight))
	require.NoError(t, err)
	place(t, w, e, 3, 2)

	stats := w.Step()
	assert.Equal(t, StepStats{Blocked: 1}, stats)
	pos, _ := w.Position(e)
	assert.Equal(t, components.Position{X: 3, Y: 2}, pos)
}

func TestAdjacentMoveBlocked(t *testing.T) {
	w := newTestWorld(t, 4, 4, false, 1)
	mover, err := w.AddOrganism(fixedOrganism(t, false, components.ActionRight))
	require.NoError(t, err)
	blocker, err := w.AddOrganism(fixedOrganism(t, false, components.ActionUp))
	require.NoError(t, err)
	place(t, w, mover, 0, 1)
	place(t, w, blocker, 1, 1)
	// A barrier above the blocker keeps it in place whatever the order.
	require.NoError(t, w.SetStaticBarrier(1, 0))

	stats := w.Step()
	assert.Equal(t, 0, stats.Moves)
	assert.Equal(t, 2, stats.Blocked)

	pos, _ := w.Position(mover)
	assert.Equal(t, components.Position{X: 0, Y: 1}, pos)
	pos, _ = w.Position(blocker)
	assert.Equal(t, components.Position{X: 1, Y: 1}, pos)
	require.NoError(t, w.CheckInvariants())
}

func TestStepNeverOverlaps(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		w := newTestWorld(t, 8, 6, seed%2 == 0, seed)
		rng := rand.New(rand.NewSource(seed * 31))
		for i := 0; i < 5; i++ {
			require.NoError(t, w.SetStaticBarrier(rng.Intn(8), rng.Intn(6)))
		}
		for i := 0; i < 25; i++ {
			_, err := w.AddOrganism(randomOrganism(t, rng, w.Diagonal()))
			require.NoError(t, err)
		}
		for step := 0; step < 30; step++ {
			w.Step()
			require.NoError(t, w.CheckInvariants(), "seed %d step %d", seed, step)
		}
		assert.Equal(t, 25, w.Population())
	}
}

func TestSensingSeesBarriersNotEdges(t *testing.T) {
	w := newTestWorld(t, 3, 3, false, 1)
	e, err := w.AddOrganism(fixedOrganism(t, false, components.ActionUp))
	require.NoError(t, err)
	place(t, w, e, 0, 1)
	require.NoError(t, w.SetStaticBarrier(1, 1))

	w.Step()
	_, nb, _ := w.mapper.Get(e)
	// up, down, left (off grid), right (barrier)
	assert.Equal(t, []bool{false, false, false, true}, nb.Cells())
}

func TestDiagonalNeighborhoodOrder(t *testing.T) {
	w := newTestWorld(t, 3, 3, true, 1)
	e, err := w.AddOrganism(fixedOrganism(t, true, components.ActionUp))
	require.NoError(t, err)
	place(t, w, e, 1, 1)
	require.NoError(t, w.SetStaticBarrier(0, 0))
	require.NoError(t, w.SetStaticBarrier(2, 2))
	require.NoError(t, w.SetStaticBarrier(1, 0))

	assert.Equal(t, StepStats{Blocked: 1}, w.Step())
	_, nb, _ := w.mapper.Get(e)
	assert.Equal(t, []bool{true, true, false, false, false, false, false, true}, nb.Cells())
}

func TestResetKeepsPopulationAndBarriers(t *testing.T) {
	w := newTestWorld(t, 5, 5, false, 3)
	rng := rand.New(rand.NewSource(4))
	require.NoError(t, w.SetStaticBarrier(2, 2))
	for i := 0; i < 10; i++ {
		_, err := w.AddOrganism(randomOrganism(t, rng, false))
		require.NoError(t, err)
	}

	for i := 0; i < 10; i++ {
		require.NoError(t, w.Reset())
		require.NoError(t, w.CheckInvariants())
	}
	assert.Equal(t, 10, w.Population())
	assert.Equal(t, CellBarrier, w.Cell(2, 2).Kind)
}

func TestResetFillsGrid(t *testing.T) {
	w := newTestWorld(t, 3, 3, false, 5)
	rng := rand.New(rand.NewSource(6))
	require.NoError(t, w.SetStaticBarrier(0, 0))
	for i := 0; i < 8; i++ {
		_, err := w.AddOrganism(randomOrganism(t, rng, false))
		require.NoError(t, err)
	}
	require.NoError(t, w.Reset())
	require.NoError(t, w.CheckInvariants())
	assert.Equal(t, 0, w.FreeCells())
}

func TestKill(t *testing.T) {
	w := newTestWorld(t, 4, 4, false, 1)
	rng := rand.New(rand.NewSource(2))
	e, err := w.AddOrganism(randomOrganism(t, rng, false))
	require.NoError(t, err)
	pos, _ := w.Position(e)

	require.NoError(t, w.Kill(e))
	assert.Equal(t, 0, w.Population())
	assert.True(t, w.Cell(pos.X, pos.Y).Free())
	_, ok := w.Organism(e)
	assert.False(t, ok)
	require.NoError(t, w.CheckInvariants())

	assert.ErrorIs(t, w.Kill(e), ErrInvariant)
}

func TestSetStaticBarrier(t *testing.T) {
	w := newTestWorld(t, 4, 4, false, 1)
	require.NoError(t, w.SetStaticBarrier(1, 1))
	require.NoError(t, w.SetStaticBarrier(1, 1))
	assert.Equal(t, 1, w.Barriers())
	assert.Equal(t, 15, w.FreeCells())
	assert.ErrorIs(t, w.SetStaticBarrier(4, 0), ErrOutOfBounds)

	e, err := w.AddOrganism(randomOrganism(t, rand.New(rand.NewSource(1)), false))
	require.NoError(t, err)
	pos, _ := w.Position(e)
	assert.ErrorIs(t, w.SetStaticBarrier(pos.X, pos.Y), ErrInvariant)
}

func TestMembersSnapshot(t *testing.T) {
	w := newTestWorld(t, 4, 4, false, 1)
	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 3; i++ {
		_, err := w.AddOrganism(randomOrganism(t, rng, false))
		require.NoError(t, err)
	}

	members := w.Members()
	require.Len(t, members, 3)
	for _, m := range members {
		assert.Equal(t, m.Entity, w.Cell(m.Position.X, m.Position.Y).Entity)
	}
}

func TestStepDeterministic(t *testing.T) {
	run := func() []components.Position {
		w := newTestWorld(t, 6, 6, false, 9)
		rng := rand.New(rand.NewSource(10))
		var es []ecs.Entity
		for i := 0; i < 12; i++ {
			e, err := w.AddOrganism(randomOrganism(t, rng, false))
			require.NoError(t, err)
			es = append(es, e)
		}
		for i := 0; i < 10; i++ {
			w.Step()
		}
		var out []components.Position
		for _, e := range es {
			p, _ := w.Position(e)
			out = append(out, p)
		}
		return out
	}
	assert.Equal(t, run(), run())
}
