// Package neural provides genome-encoded feedforward brains for organisms.
package neural

import "fmt"

// Layer describes one fully connected layer. In excludes the bias unit.
type Layer struct {
	In  int
	Out int
}

// Weights returns the number of genes the layer consumes, bias row included.
func (l Layer) Weights() int {
	return (l.In + 1) * l.Out
}

// Topology describes the shape of a brain: input count, hidden layer sizes
// and output count.
type Topology struct {
	Inputs  int
	Hidden  []int
	Outputs int
}

// NewTopology builds a topology and rejects non-positive layer sizes.
func NewTopology(inputs int, hidden []int, outputs int) (Topology, error) {
	if inputs <= 0 {
		return Topology{}, fmt.Errorf("topology: inputs must be positive, got %d", inputs)
	}
	if outputs <= 0 {
		return Topology{}, fmt.Errorf("topology: outputs must be positive, got %d", outputs)
	}
	for i, h := range hidden {
		if h <= 0 {
			return Topology{}, fmt.Errorf("topology: hidden layer %d must be positive, got %d", i, h)
		}
	}
	hs := make([]int, len(hidden))
	copy(hs, hidden)
	return Topology{Inputs: inputs, Hidden: hs, Outputs: outputs}, nil
}

// Layers returns the layers in forward order.
func (t Topology) Layers() []Layer {
	layers := make([]Layer, 0, len(t.Hidden)+1)
	in := t.Inputs
	for _, h := range t.Hidden {
		layers = append(layers, Layer{In: in, Out: h})
		in = h
	}
	return append(layers, Layer{In: in, Out: t.Outputs})
}

// GenomeLength is the number of genes a genome for this topology holds.
func (t Topology) GenomeLength() int {
	n := 0
	for _, l := range t.Layers() {
		n += l.Weights()
	}
	return n
}

func (t Topology) String() string {
	return fmt.Sprintf("%d-%v-%d", t.Inputs, t.Hidden, t.Outputs)
}
