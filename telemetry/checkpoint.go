package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/storage"
	"github.com/pthm-cable/evogrid/world"
)

// checkpointTimeout bounds a single store write.
const checkpointTimeout = 30 * time.Second

// Checkpointer saves every genome of the population to a store every
// Frequency generations, on the last generation and on interrupt.
type Checkpointer struct {
	evolution.Base

	store       storage.Store
	runID       string
	topology    neural.Topology
	frequency   int
	generations int
	logger      *slog.Logger
}

// CheckpointOptions configures a Checkpointer.
type CheckpointOptions struct {
	RunID       string
	Topology    neural.Topology
	Frequency   int
	Generations int
	Logger      *slog.Logger
}

// NewCheckpointer wraps an initialised store.
func NewCheckpointer(base evolution.Base, store storage.Store, opts CheckpointOptions) *Checkpointer {
	if opts.Frequency < 1 {
		opts.Frequency = 1
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Checkpointer{
		Base:        base,
		store:       store,
		runID:       opts.RunID,
		topology:    opts.Topology,
		frequency:   opts.Frequency,
		generations: opts.Generations,
		logger:      opts.Logger,
	}
}

func (c *Checkpointer) OnGenerationFinish(gen int, _ *evolution.GenerationReport, w world.View) error {
	if gen%c.frequency != 0 && gen != c.generations-1 {
		return nil
	}
	return c.save(gen, w)
}

// OnInterrupt saves the population left by the last finished generation.
// Before the first generation that is generation -1, the seed population.
func (c *Checkpointer) OnInterrupt(gen int, w world.View) error {
	return c.save(gen-1, w)
}

func (c *Checkpointer) save(gen int, w world.View) error {
	members := w.Members()
	genomes := make([]neural.Genome, len(members))
	for i, m := range members {
		genomes[i] = m.Organism.Genome
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkpointTimeout)
	defer cancel()
	err := c.store.SaveCheckpoint(ctx, storage.Checkpoint{
		RunID:      c.runID,
		Generation: gen,
		Topology:   c.topology.String(),
		CreatedAt:  time.Now(),
		Genomes:    genomes,
	})
	if err != nil {
		return fmt.Errorf("saving checkpoint %s/%d: %w", c.runID, gen, err)
	}
	c.logger.Debug("checkpoint saved", "run_id", c.runID, "generation", gen, "genomes", len(genomes))
	return nil
}

// Close closes the underlying store.
func (c *Checkpointer) Close() error {
	return c.store.Close()
}
