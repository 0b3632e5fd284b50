package systems

import (
	"github.com/pthm-cable/evogrid/components"
	"github.com/pthm-cable/evogrid/neural"
)

// SensorInputs holds the computed sensor values for one organism.
// Total: 2 + 4 floats, or 2 + 8 with diagonals.
type SensorInputs struct {
	X, Y      float64                          // position normalized by world size, in [0,1)
	Neighbors [components.MaxNeighbors]float64 // 1 if occupied, 0 otherwise
	Size      int                              // meaningful neighbor entries
}

// AsSlice returns the sensor inputs as a flat slice for the neural network.
func (s *SensorInputs) AsSlice() []float64 {
	result := make([]float64, 2+s.Size)
	result[0] = s.X
	result[1] = s.Y
	copy(result[2:], s.Neighbors[:s.Size])
	return result
}

// ComputeSensors builds the brain input for an organism from its local
// world state.
func ComputeSensors(pos components.Position, nb components.Neighborhood, worldWidth, worldHeight int) SensorInputs {
	inputs := SensorInputs{
		X:    float64(pos.X) / float64(worldWidth),
		Y:    float64(pos.Y) / float64(worldHeight),
		Size: nb.Size,
	}
	for i, occupied := range nb.Cells() {
		if occupied {
			inputs.Neighbors[i] = 1
		}
	}
	return inputs
}

// NeighborCount returns 8 when diagonal cells are sensed, 4 otherwise.
func NeighborCount(diagonal bool) int {
	if diagonal {
		return 8
	}
	return 4
}

// BrainTopology returns the network shape for the configured sensing mode.
func BrainTopology(diagonal bool, hidden []int) (neural.Topology, error) {
	return neural.NewTopology(2+NeighborCount(diagonal), hidden, components.NumActions)
}
