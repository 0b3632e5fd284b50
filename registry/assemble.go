package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/repopulation"
	"github.com/pthm-cable/evogrid/storage"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/world"
)

// Options tunes Assemble beyond what the configuration holds.
type Options struct {
	Headless bool
	Cancel   context.CancelFunc   // handed to observers that can end a run
	Extra    []evolution.Observer // added to the observers built from callbacks
}

// Run is an assembled, seeded experiment ready to drive.
type Run struct {
	ID       string
	Dir      string // empty when file output is off
	Config   *config.Config
	Topology neural.Topology
	World    *world.World
	Driver   *evolution.Driver

	closers []io.Closer
}

// Execute drives every generation and closes the run.
func (r *Run) Execute(ctx context.Context) error {
	err := r.Driver.Run(ctx)
	return errors.Join(err, r.Close())
}

// Close releases observer resources. It is safe to call twice.
func (r *Run) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// Assemble builds a world, its strategies and observers from cfg, and seeds
// the initial population.
func (r *Registry) Assemble(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (_ *Run, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	run := &Run{ID: uuid.NewString(), Config: cfg}
	defer func() {
		if err != nil {
			err = errors.Join(err, run.Close())
		}
	}()

	if cfg.OutputDir != "" {
		run.Dir = filepath.Join(cfg.OutputDir, cfg.ExperimentName+"_"+run.ID)
		if err := os.MkdirAll(run.Dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating run directory: %w", err)
		}
	}
	logger = logger.With("run_id", run.ID)

	run.Topology, err = systems.BrainTopology(cfg.IncludeDiagonal, cfg.HiddenLayers)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	run.World, err = world.New(world.Options{
		Width:    cfg.WorldWidth,
		Height:   cfg.WorldHeight,
		Diagonal: cfg.IncludeDiagonal,
	}, rand.New(rand.NewSource(rng.Int63())))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}

	gen, err := r.Terrain(cfg.WorldGen)
	if err != nil {
		return nil, err
	}
	if err := gen.Generate(run.World, rng); err != nil {
		return nil, fmt.Errorf("terrain %s: %w", gen.Kind(), err)
	}
	if run.World.FreeCells() < cfg.PopSize {
		return nil, fmt.Errorf("%w: terrain %s leaves %d free cells for pop_size %d",
			config.ErrInvalid, gen.Kind(), run.World.FreeCells(), cfg.PopSize)
	}

	sel, err := r.Selection(cfg.Selection)
	if err != nil {
		return nil, err
	}
	strategy, err := r.Repopulation(cfg.Repopulation)
	if err != nil {
		return nil, err
	}
	repop := &repopulation.Repopulator{
		Strategy: strategy,
		Breeder:  systems.Breeder{Topology: run.Topology, MutationRate: cfg.MutationRate},
		Target:   cfg.PopSize,
		Logger:   logger,
	}

	observers, err := r.Observers(Env{
		Context:   ctx,
		Config:    cfg,
		Logger:    logger,
		RunID:     run.ID,
		OutputDir: run.Dir,
		Topology:  run.Topology,
		Headless:  opts.Headless,
		Cancel:    opts.Cancel,
	})
	if err != nil {
		return nil, err
	}
	observers = append(observers, opts.Extra...)
	for _, o := range observers {
		if c, ok := o.(io.Closer); ok {
			run.closers = append(run.closers, c)
		}
	}

	run.Driver, err = evolution.NewDriver(evolution.Options{
		Generations:     cfg.Generations,
		StepsPerGen:     cfg.StepsPerGeneration,
		CheckInvariants: cfg.CheckInvariants,
	}, run.World, sel, repop, observers, rng, logger)
	if err != nil {
		return nil, err
	}

	genomes, err := seedGenomes(ctx, cfg.SeedPopulation, run.Topology)
	if err != nil {
		return nil, err
	}
	if err := run.Driver.Seed(genomes); err != nil {
		if errors.Is(err, neural.ErrLengthMismatch) {
			return nil, fmt.Errorf("%w: seed population: %v", config.ErrInvalid, err)
		}
		return nil, err
	}

	logger.Info("run assembled",
		"dir", run.Dir,
		"world", fmt.Sprintf("%dx%d", cfg.WorldWidth, cfg.WorldHeight),
		"barriers", run.World.Barriers(),
		"population", run.World.Population(),
		"seeded_genomes", len(genomes),
		"topology", run.Topology.String(),
		"observers", len(run.Driver.Observers()),
	)
	return run, nil
}

// seedGenomes loads the checkpoint named by sp. A nil sp means a random
// start.
func seedGenomes(ctx context.Context, sp *config.SeedPopulation, topo neural.Topology) ([]neural.Genome, error) {
	if sp == nil {
		return nil, nil
	}
	store, err := storage.NewStore(sp.Backend, sp.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: seed population: %v", config.ErrInvalid, err)
	}
	defer store.Close()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("seed population: %w", err)
	}

	var (
		cp    storage.Checkpoint
		found bool
	)
	if sp.Generation != nil {
		cp, found, err = store.GetCheckpoint(ctx, sp.RunID, *sp.Generation)
	} else {
		cp, found, err = store.LatestCheckpoint(ctx, sp.RunID)
	}
	if err != nil {
		return nil, fmt.Errorf("seed population: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: seed population: no checkpoint for run %q", config.ErrInvalid, sp.RunID)
	}
	if cp.Topology != topo.String() {
		return nil, fmt.Errorf("%w: seed population topology %s does not match %s",
			config.ErrInvalid, cp.Topology, topo.String())
	}
	return cp.Genomes, nil
}
