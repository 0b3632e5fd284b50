// Package evolution sequences generations: reset, steps, selection,
// repopulation and observer notification.
package evolution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/neural"
	"github.com/pthm-cable/evogrid/repopulation"
	"github.com/pthm-cable/evogrid/selection"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/world"
)

// Options configures a Driver.
type Options struct {
	Generations     int
	StepsPerGen     int
	CheckInvariants bool // verify world bookkeeping after every mutation phase
}

// Driver runs the generational loop over one world.
type Driver struct {
	opts      Options
	world     *world.World
	selection selection.Strategy
	repop     *repopulation.Repopulator
	observers []Observer
	rng       *rand.Rand
	logger    *slog.Logger

	generation int
}

// NewDriver wires the pieces of a run. Observers are sorted once here.
func NewDriver(opts Options, w *world.World, sel selection.Strategy, repop *repopulation.Repopulator,
	observers []Observer, rng *rand.Rand, logger *slog.Logger) (*Driver, error) {
	if w == nil || sel == nil || repop == nil || rng == nil {
		return nil, errors.New("evolution: world, selection, repopulation and rng are required")
	}
	if opts.Generations < 0 || opts.StepsPerGen < 0 {
		return nil, fmt.Errorf("evolution: negative generations (%d) or steps (%d)", opts.Generations, opts.StepsPerGen)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		opts:      opts,
		world:     w,
		selection: sel,
		repop:     repop,
		observers: SortObservers(observers),
		rng:       rng,
		logger:    logger,
	}, nil
}

// World returns the driven world for read-only use.
func (d *Driver) World() world.View { return d.world }

// Observers returns the observers in notification order.
func (d *Driver) Observers() []Observer { return d.observers }

// Generation is the index of the next generation to run.
func (d *Driver) Generation() int { return d.generation }

// Seed fills the world to the repopulation target. Genomes are used in
// order first; the rest of the population is random.
func (d *Driver) Seed(genomes []neural.Genome) error {
	b := d.repop.Breeder
	for i := d.world.Population(); i < d.repop.Target; i++ {
		org, err := d.newSeed(i, genomes, b)
		if err != nil {
			return fmt.Errorf("seed organism %d: %w", i, err)
		}
		if _, err := d.world.AddOrganism(org); err != nil {
			return fmt.Errorf("seed organism %d: %w", i, err)
		}
	}
	return d.check("seed")
}

func (d *Driver) newSeed(i int, genomes []neural.Genome, b systems.Breeder) (components.Organism, error) {
	if i >= len(genomes) {
		return b.Random(d.rng), nil
	}
	return components.NewOrganism(genomes[i].Clone(), b.Topology)
}

// Run executes the remaining generations. Cancellation is checked between
// generations; on cancel every observer's OnInterrupt is called and the
// context error is returned.
func (d *Driver) Run(ctx context.Context) error {
	for d.generation < d.opts.Generations {
		if err := ctx.Err(); err != nil {
			return d.interrupt(err)
		}
		if _, err := d.RunGeneration(); err != nil {
			return err
		}
	}
	return nil
}

// RunGeneration runs one full generation and notifies observers.
func (d *Driver) RunGeneration() (*GenerationReport, error) {
	start := time.Now()
	gen := d.generation
	report := &GenerationReport{Generation: gen}

	if err := d.world.Reset(); err != nil {
		return nil, fmt.Errorf("generation %d: %w", gen, err)
	}
	if err := d.check("reset"); err != nil {
		return nil, fmt.Errorf("generation %d: %w", gen, err)
	}

	var moves world.StepStats
	for step := 0; step < d.opts.StepsPerGen; step++ {
		moves.Add(d.world.Step())
		if err := d.check("step"); err != nil {
			return nil, fmt.Errorf("generation %d step %d: %w", gen, step, err)
		}
		for _, o := range d.observers {
			report.mergeStepMetrics(o.OnStepFinish(gen, d.world))
		}
	}
	report.MovesAttempted = moves.Attempts()
	report.MovesBlocked = moves.Blocked

	sel, err := selection.Apply(d.world, d.selection)
	if err != nil {
		return nil, fmt.Errorf("generation %d: %w", gen, err)
	}
	if err := d.check("selection"); err != nil {
		return nil, fmt.Errorf("generation %d: %w", gen, err)
	}
	report.InitialPopulation = sel.Initial
	report.SurvivingPopulation = sel.Survivors
	report.SurvivalRate = sel.Rate

	rep, err := d.repop.Apply(d.world, d.rng)
	if err != nil {
		return nil, fmt.Errorf("generation %d: %w", gen, err)
	}
	if err := d.check("repopulation"); err != nil {
		return nil, fmt.Errorf("generation %d: %w", gen, err)
	}
	report.NewOrganisms = rep.Created
	report.RandomSeeded = rep.Seeded
	report.Population = d.world.Population()

	gs := ComputeGeneStats(d.world.Members())
	report.GeneMean, report.GeneStd, report.GeneDiversity = gs.Mean, gs.Std, gs.Diversity
	report.Elapsed = time.Since(start)

	d.generation++
	for _, o := range d.observers {
		if err := o.OnGenerationFinish(gen, report, d.world); err != nil {
			return report, fmt.Errorf("observer %s: %w", o.Name(), err)
		}
	}
	return report, nil
}

func (d *Driver) interrupt(cause error) error {
	d.logger.Warn("run interrupted", "generation", d.generation)
	errs := []error{cause}
	for _, o := range d.observers {
		if err := o.OnInterrupt(d.generation, d.world); err != nil {
			errs = append(errs, fmt.Errorf("observer %s: %w", o.Name(), err))
		}
	}
	return errors.Join(errs...)
}

func (d *Driver) check(phase string) error {
	if !d.opts.CheckInvariants {
		return nil
	}
	if err := d.world.CheckInvariants(); err != nil {
		return fmt.Errorf("after %s: %w", phase, err)
	}
	return nil
}
