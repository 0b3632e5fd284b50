// Package repopulation refills a world to its target size after selection.
package repopulation

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/systems"
	"github.com/pthm-cable/evogrid/world"
)

// Kind names a repopulation variant in configuration.
type Kind string

const (
	KindRandomCrossover Kind = "random_crossover"
	KindRandomClone     Kind = "random_clone"
)

// Kinds lists every supported variant.
func Kinds() []Kind {
	return []Kind{KindRandomCrossover, KindRandomClone}
}

// Strategy creates one new organism from the survivor pool. The pool is
// never empty.
type Strategy interface {
	Kind() Kind
	CreateOne(rng *rand.Rand, b systems.Breeder, pool []world.Member) (components.Organism, error)
}

// World is what Repopulator needs from a world.
type World interface {
	world.View
	AddOrganism(org components.Organism) (ecs.Entity, error)
}

// Result summarises one repopulation pass.
type Result struct {
	Created int
	Seeded  bool // the pool was empty and random organisms were created
}

// Repopulator fills the deficit between the population and Target.
type Repopulator struct {
	Strategy Strategy
	Breeder  systems.Breeder
	Target   int
	Logger   *slog.Logger
}

// Apply creates max(0, Target-population) organisms and adds each
// immediately. Parents are always drawn from the survivors present before
// the first creation. With no survivors, fresh random organisms are seeded
// instead.
func (r *Repopulator) Apply(w World, rng *rand.Rand) (Result, error) {
	deficit := max(0, r.Target-w.Population())
	if deficit == 0 {
		return Result{}, nil
	}

	pool := w.Members()
	res := Result{Seeded: len(pool) == 0}
	if res.Seeded && r.Logger != nil {
		r.Logger.Warn("no survivors, seeding random organisms", "count", deficit)
	}

	for i := 0; i < deficit; i++ {
		var (
			org components.Organism
			err error
		)
		if res.Seeded {
			org = r.Breeder.Random(rng)
		} else {
			org, err = r.Strategy.CreateOne(rng, r.Breeder, pool)
			if err != nil {
				return res, fmt.Errorf("repopulation %s: %w", r.Strategy.Kind(), err)
			}
		}
		if _, err := w.AddOrganism(org); err != nil {
			return res, fmt.Errorf("repopulation %s: %w", r.Strategy.Kind(), err)
		}
		res.Created++
	}
	return res, nil
}

// RandomCrossover breeds two survivors drawn uniformly with replacement.
type RandomCrossover struct{}

func (RandomCrossover) Kind() Kind { return KindRandomCrossover }

func (RandomCrossover) CreateOne(rng *rand.Rand, b systems.Breeder, pool []world.Member) (components.Organism, error) {
	a := &pool[rng.Intn(len(pool))].Organism
	c := &pool[rng.Intn(len(pool))].Organism
	return b.Reproduce(rng, a, c)
}

// RandomClone mutates a copy of one uniformly drawn survivor.
type RandomClone struct{}

func (RandomClone) Kind() Kind { return KindRandomClone }

func (RandomClone) CreateOne(rng *rand.Rand, b systems.Breeder, pool []world.Member) (components.Organism, error) {
	return b.Reproduce(rng, &pool[rng.Intn(len(pool))].Organism, nil)
}
