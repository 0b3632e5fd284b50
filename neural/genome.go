package neural

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrLengthMismatch is returned when two genomes, or a genome and a
// topology, disagree on gene count.
var ErrLengthMismatch = errors.New("genome length mismatch")

// Gene values are drawn uniformly from this range.
const (
	GeneMin = -1.0
	GeneMax = 1.0
)

// Genome is a flat vector of brain weights in layer order, each layer stored
// row-major as (in+1) x out.
type Genome []float64

// RandomGene returns a uniform value in [GeneMin, GeneMax).
func RandomGene(rng *rand.Rand) float64 {
	return GeneMin + rng.Float64()*(GeneMax-GeneMin)
}

// RandomGenome creates a genome of the right length for t with
// independently uniform genes.
func RandomGenome(rng *rand.Rand, t Topology) Genome {
	g := make(Genome, t.GenomeLength())
	for i := range g {
		g[i] = RandomGene(rng)
	}
	return g
}

// Clone returns an independent copy.
func (g Genome) Clone() Genome {
	c := make(Genome, len(g))
	copy(c, g)
	return c
}

// Mutate replaces one uniformly chosen gene with a fresh random value with
// probability rate. It reports whether a gene was replaced.
func (g Genome) Mutate(rng *rand.Rand, rate float64) bool {
	if len(g) == 0 || rng.Float64() >= rate {
		return false
	}
	g[rng.Intn(len(g))] = RandomGene(rng)
	return true
}

// Crossover performs uniform per-locus crossover: every gene comes from g or
// other with probability one half.
func (g Genome) Crossover(rng *rand.Rand, other Genome) (Genome, error) {
	if len(g) != len(other) {
		return nil, fmt.Errorf("crossover %d vs %d genes: %w", len(g), len(other), ErrLengthMismatch)
	}
	child := make(Genome, len(g))
	for i := range g {
		if rng.Float64() < 0.5 {
			child[i] = g[i]
		} else {
			child[i] = other[i]
		}
	}
	return child, nil
}

// Decode slices the genome into per-layer weight matrices.
func (g Genome) Decode(t Topology) (*Brain, error) {
	if want := t.GenomeLength(); len(g) != want {
		return nil, fmt.Errorf("decode %d genes for topology %s (want %d): %w", len(g), t, want, ErrLengthMismatch)
	}
	return newBrain(g, t), nil
}
