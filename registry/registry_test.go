package registry

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/selection"
	"github.com/pthm-cable/evogrid/storage"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/world"
)

// smallConfig is a fast headless run without file output.
func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Default()
	require.NoError(t, err)

	cfg.WorldWidth, cfg.WorldHeight = 16, 12
	cfg.PopSize = 30
	cfg.Generations = 3
	cfg.StepsPerGeneration = 5
	cfg.HiddenLayers = []int{4}
	cfg.CheckInvariants = true
	cfg.OutputDir = ""
	delete(cfg.Callbacks, ObserverViewer)
	return cfg
}

func strategy(t *testing.T, method string, params any) config.Strategy {
	t.Helper()
	s, err := config.NewStrategy(method, params)
	require.NoError(t, err)
	return s
}

func TestUnknownStrategyNamesCategoryAndKey(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		build    func() error
		category Category
		key      string
	}{
		{"selection", func() error {
			_, err := r.Selection(strategy(t, "tournament", nil))
			return err
		}, CategorySelection, "tournament"},
		{"repopulation", func() error {
			_, err := r.Repopulation(strategy(t, "elitist", nil))
			return err
		}, CategoryRepopulation, "elitist"},
		{"terrain", func() error {
			_, err := r.Terrain(strategy(t, "mazes", nil))
			return err
		}, CategoryTerrain, "mazes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.ErrorIs(t, err, config.ErrInvalid)
			assert.Contains(t, err.Error(), string(tt.category))
			assert.Contains(t, err.Error(), `"`+tt.key+`"`)
		})
	}
}

func TestBuiltinsRegistered(t *testing.T) {
	r := New()
	assert.Equal(t, []string{"one_side_survive", "rect_region"}, r.Names(CategorySelection))
	assert.Equal(t, []string{"random_clone", "random_crossover"}, r.Names(CategoryRepopulation))
	assert.Equal(t, []string{"forgiven_caves", "no_gen", "noise_caves", "simple_barriers"}, r.Names(CategoryTerrain))
	assert.Equal(t, []string{"genome_checkpoint", "history", "logger", "perf", "step_stats"}, r.Names(CategoryObserver))
	assert.Empty(t, Empty().Names(CategorySelection))
}

func TestDuplicateRegistration(t *testing.T) {
	r := New()
	err := r.RegisterSelection("one_side_survive", func(config.Strategy) (selection.Strategy, error) {
		return nil, nil
	})
	require.ErrorIs(t, err, ErrExists)

	err = r.RegisterObserver("", func(Env, string, config.Strategy) (evolution.Observer, error) {
		return nil, nil
	})
	require.Error(t, err)
}

func TestSelectionDecodesParams(t *testing.T) {
	r := New()
	s, err := r.Selection(strategy(t, "one_side_survive", map[string]any{
		"survival_side":              "right",
		"survival_region_proportion": 0.25,
	}))
	require.NoError(t, err)
	assert.Equal(t, selection.KindOneSideSurvive, s.Kind())

	_, err = r.Selection(strategy(t, "one_side_survive", map[string]any{
		"survival_side":              "right",
		"survival_region_proportion": 1.5,
	}))
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Equal(t, 1, strings.Count(err.Error(), config.ErrInvalid.Error()), "wrapped once: %v", err)
}

func TestEmptyTerrainMethodIsNoGen(t *testing.T) {
	g, err := New().Terrain(config.Strategy{})
	require.NoError(t, err)
	assert.EqualValues(t, "no_gen", g.Kind())
}

func TestObserversSkipDisabledAndNil(t *testing.T) {
	cfg := smallConfig(t)
	r := New()
	obs, err := r.Observers(Env{Config: cfg, Topology: neural.Topology{}})
	require.NoError(t, err)

	// history has no directory, step_stats and genome_checkpoint are off.
	require.Len(t, obs, 1)
	assert.Equal(t, ObserverLogger, obs[0].Name())
}

func TestObserversUnregisteredCallback(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Callbacks["viewer"] = strategy(t, "", nil)

	_, err := New().Observers(Env{Config: cfg})
	require.ErrorIs(t, err, config.ErrInvalid)
	assert.Contains(t, err.Error(), `"viewer"`)
}

func TestAssembleAndExecute(t *testing.T) {
	cfg := smallConfig(t)
	cfg.OutputDir = t.TempDir()
	cfg.Callbacks[ObserverStepStats] = strategy(t, "", map[string]any{"priority": 5})

	run, err := New().Assemble(context.Background(), cfg, nil, Options{Headless: true})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "default_"+run.ID), run.Dir)
	assert.Equal(t, cfg.PopSize, run.World.Population())

	names := make([]string, 0, len(run.Driver.Observers()))
	for _, o := range run.Driver.Observers() {
		names = append(names, o.Name())
	}
	assert.Equal(t, []string{"logger", "step_stats", "history"}, names)

	require.NoError(t, run.Execute(context.Background()))
	assert.Equal(t, cfg.Generations, run.Driver.Generation())
	assert.FileExists(t, filepath.Join(run.Dir, "history.csv"))
	assert.FileExists(t, filepath.Join(run.Dir, "config.yaml"))
	require.NoError(t, run.World.CheckInvariants())
}

func TestAssembleRejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig(t)
	cfg.MutationRate = 2
	_, err := New().Assemble(context.Background(), cfg, nil, Options{})
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestAssembleTerrainLeavesTooFewCells(t *testing.T) {
	cfg := smallConfig(t)
	cfg.PopSize = 150
	cfg.WorldGen = strategy(t, "simple_barriers", map[string]any{
		"barriers": [][]float64{{0, 0, 0.5, 1}},
	})
	_, err := New().Assemble(context.Background(), cfg, nil, Options{})
	require.ErrorIs(t, err, config.ErrInvalid)
}

func saveSeed(t *testing.T, path string, topo neural.Topology, genomes []neural.Genome) {
	t.Helper()
	ctx := context.Background()
	store := storage.NewSQLiteStore(path)
	require.NoError(t, store.Init(ctx))
	defer store.Close()
	require.NoError(t, store.SaveCheckpoint(ctx, storage.Checkpoint{
		RunID:      "parent",
		Generation: 2,
		Topology:   topo.String(),
		CreatedAt:  time.Now(),
		Genomes:    genomes,
	}))
}

func TestAssembleSeedsFromCheckpoint(t *testing.T) {
	cfg := smallConfig(t)
	topo, err := systems.BrainTopology(cfg.IncludeDiagonal, cfg.HiddenLayers)
	require.NoError(t, err)

	g := make(neural.Genome, topo.GenomeLength())
	for i := range g {
		g[i] = 0.5
	}
	path := filepath.Join(t.TempDir(), "seed.db")
	saveSeed(t, path, topo, []neural.Genome{g, g})
	cfg.SeedPopulation = &config.SeedPopulation{Backend: "sqlite", Path: path, RunID: "parent"}

	run, err := New().Assemble(context.Background(), cfg, nil, Options{})
	require.NoError(t, err)
	defer run.Close()

	seeded := 0
	for _, m := range run.World.Members() {
		if allEqual(m.Organism.Genome, 0.5) {
			seeded++
		}
	}
	assert.Equal(t, 2, seeded)
	assert.Equal(t, cfg.PopSize, run.World.Population())
}

func TestAssembleSeedLengthMismatch(t *testing.T) {
	cfg := smallConfig(t)
	topo, err := systems.BrainTopology(cfg.IncludeDiagonal, cfg.HiddenLayers)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "seed.db")
	saveSeed(t, path, topo, []neural.Genome{make(neural.Genome, topo.GenomeLength()-1)})
	cfg.SeedPopulation = &config.SeedPopulation{Backend: "sqlite", Path: path, RunID: "parent"}

	_, err = New().Assemble(context.Background(), cfg, nil, Options{})
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestAssembleSeedMissingRun(t *testing.T) {
	cfg := smallConfig(t)
	cfg.SeedPopulation = &config.SeedPopulation{Backend: "memory", RunID: "nope"}

	_, err := New().Assemble(context.Background(), cfg, nil, Options{})
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestAssembleObserverSeesWorld(t *testing.T) {
	cfg := smallConfig(t)
	cfg.Generations = 1
	probe := &probe{Base: evolution.Base{ObserverName: "probe", ObserverPriority: 99}}

	run, err := New().Assemble(context.Background(), cfg, nil, Options{Extra: []evolution.Observer{probe}})
	require.NoError(t, err)
	require.NoError(t, run.Execute(context.Background()))
	assert.Equal(t, []int{cfg.PopSize}, probe.populations)
}

type probe struct {
	evolution.Base
	populations []int
}

func (p *probe) OnGenerationFinish(_ int, _ *evolution.GenerationReport, v world.View) error {
	p.populations = append(p.populations, v.Population())
	return nil
}

func allEqual(g neural.Genome, v float64) bool {
	for _, x := range g {
		if x != v {
			return false
		}
	}
	return true
}
