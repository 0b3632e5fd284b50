package repopulation

import (
	"bytes"
	"log/slog"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/world"
)

func testSetup(t *testing.T, survivors int) (*world.World, systems.Breeder, *rand.Rand) {
	t.Helper()
	rng := rand.New(rand.NewSource(5))
	w, err := world.New(world.Options{Width: 8, Height: 8}, rng)
	require.NoError(t, err)

	topo, err := systems.BrainTopology(false, []int{3})
	require.NoError(t, err)
	b := systems.Breeder{Topology: topo, MutationRate: 0.5}
	for i := 0; i < survivors; i++ {
		_, err := w.AddOrganism(b.Random(rng))
		require.NoError(t, err)
	}
	return w, b, rng
}

func TestApplyRestoresTarget(t *testing.T) {
	for _, s := range []Strategy{RandomCrossover{}, RandomClone{}} {
		t.Run(string(s.Kind()), func(t *testing.T) {
			w, b, rng := testSetup(t, 5)
			r := &Repopulator{Strategy: s, Breeder: b, Target: 40}

			res, err := r.Apply(w, rng)
			require.NoError(t, err)
			assert.Equal(t, 35, res.Created)
			assert.False(t, res.Seeded)
			assert.Equal(t, 40, w.Population())
			require.NoError(t, w.CheckInvariants())
		})
	}
}

func TestApplyParentsFromSurvivors(t *testing.T) {
	w, b, rng := testSetup(t, 4)
	survivors := map[uint32]bool{}
	for _, m := range w.Members() {
		survivors[m.Organism.ID] = true
	}

	r := &Repopulator{Strategy: RandomCrossover{}, Breeder: b, Target: 30}
	_, err := r.Apply(w, rng)
	require.NoError(t, err)

	for _, m := range w.Members() {
		if survivors[m.Organism.ID] {
			continue
		}
		assert.Equal(t, 1, m.Organism.Generation)
		for _, p := range m.Organism.Parents {
			assert.True(t, survivors[p], "parent %d is not a survivor", p)
		}
	}
}

func TestApplyNoDeficit(t *testing.T) {
	w, b, rng := testSetup(t, 10)
	r := &Repopulator{Strategy: RandomClone{}, Breeder: b, Target: 6}

	res, err := r.Apply(w, rng)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 10, w.Population())
}

func TestApplySeedsWhenExtinct(t *testing.T) {
	w, b, rng := testSetup(t, 0)
	var buf bytes.Buffer
	r := &Repopulator{
		Strategy: RandomCrossover{},
		Breeder:  b,
		Target:   12,
		Logger:   slog.New(slog.NewTextHandler(&buf, nil)),
	}

	res, err := r.Apply(w, rng)
	require.NoError(t, err)
	assert.True(t, res.Seeded)
	assert.Equal(t, 12, w.Population())
	assert.Contains(t, buf.String(), "no survivors")
	for _, m := range w.Members() {
		assert.Equal(t, 0, m.Organism.Generation)
	}
}

func TestApplyTargetAboveCapacity(t *testing.T) {
	w, b, rng := testSetup(t, 2)
	r := &Repopulator{Strategy: RandomClone{}, Breeder: b, Target: 65}

	_, err := r.Apply(w, rng)
	assert.ErrorIs(t, err, world.ErrInvariant)
}
