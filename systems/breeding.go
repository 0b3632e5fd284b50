package systems

import (
	"math/rand"

	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/neural"
)

// Breeder holds the parameters shared by every reproduction call.
type Breeder struct {
	Topology     neural.Topology
	MutationRate float64
}

// Reproduce creates a child of parent. With other == nil the child's genome
// is a mutated clone (asexual); otherwise it is the uniform crossover of
// both parents, then mutated. The child has no ID or position until it is
// added to a world.
func (b Breeder) Reproduce(rng *rand.Rand, parent, other *components.Organism) (components.Organism, error) {
	var genome neural.Genome
	parents := [2]uint32{parent.ID, parent.ID}
	gen := parent.Generation

	if other == nil {
		genome = parent.Genome.Clone()
	} else {
		var err error
		genome, err = parent.Genome.Crossover(rng, other.Genome)
		if err != nil {
			return components.Organism{}, err
		}
		parents[1] = other.ID
		gen = max(gen, other.Generation)
	}
	genome.Mutate(rng, b.MutationRate)

	child, err := components.NewOrganism(genome, b.Topology)
	if err != nil {
		return components.Organism{}, err
	}
	child.Generation = gen + 1
	child.Parents = parents
	return child, nil
}

// Random creates a seeded organism with a random genome.
func (b Breeder) Random(rng *rand.Rand) components.Organism {
	// Decode cannot fail: the genome is sized from the same topology.
	org, _ := components.NewOrganism(neural.RandomGenome(rng, b.Topology), b.Topology)
	return org
}
