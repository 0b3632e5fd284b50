package evolution

import (
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/evogrid/world"
)

// GeneStats holds population-wide gene statistics.
type GeneStats struct {
	Mean float64
	Std  float64
	// Diversity is the mean over loci of the per-locus standard deviation.
	// It is 0 for a population of identical genomes.
	Diversity float64
}

// ComputeGeneStats summarises the genomes of all members. Members whose
// genome length differs from the first are ignored.
func ComputeGeneStats(members []world.Member) GeneStats {
	if len(members) == 0 {
		return GeneStats{}
	}
	length := len(members[0].Organism.Genome)
	if length == 0 {
		return GeneStats{}
	}

	all := make([]float64, 0, len(members)*length)
	loci := make([][]float64, length)
	for _, m := range members {
		g := m.Organism.Genome
		if len(g) != length {
			continue
		}
		all = append(all, g...)
		for i, v := range g {
			loci[i] = append(loci[i], v)
		}
	}

	var s GeneStats
	s.Mean, s.Std = stat.PopMeanStdDev(all, nil)
	if len(loci[0]) < 2 {
		return s
	}
	var sum float64
	for _, l := range loci {
		_, std := stat.PopMeanStdDev(l, nil)
		sum += std
	}
	s.Diversity = sum / float64(length)
	return s
}
