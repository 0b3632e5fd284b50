// Package components defines ECS components for the simulation.
package components

import "github.com/pthm-cable/evogrid/neural"

// Organism bundles identity, genome and the brain decoded from it.
// The genome is not modified while the organism lives.
type Organism struct {
	ID         uint32
	Generation int       // 0 for seeded organisms, max(parent)+1 otherwise
	Parents    [2]uint32 // zero when seeded; both equal for asexual offspring
	Genome     neural.Genome
	Brain      *neural.Brain
}

// NewOrganism decodes genome into a fresh organism with no identity yet.
// The world assigns the ID when the organism is added.
func NewOrganism(genome neural.Genome, topo neural.Topology) (Organism, error) {
	brain, err := genome.Decode(topo)
	if err != nil {
		return Organism{}, err
	}
	return Organism{Genome: genome, Brain: brain}, nil
}
