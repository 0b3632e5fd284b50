package neural

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Brain is a feedforward network decoded from a genome. It holds one
// (in+1) x out matrix per layer; the last row of each matrix multiplies the
// bias unit. A Brain is never modified after decoding.
type Brain struct {
	topology Topology
	layers   []*mat.Dense
}

func newBrain(g Genome, t Topology) *Brain {
	b := &Brain{topology: t}
	offset := 0
	for _, l := range t.Layers() {
		n := l.Weights()
		// Copy so the brain does not alias the genome's backing array.
		data := make([]float64, n)
		copy(data, g[offset:offset+n])
		b.layers = append(b.layers, mat.NewDense(l.In+1, l.Out, data))
		offset += n
	}
	return b
}

// Topology returns the shape the brain was decoded with.
func (b *Brain) Topology() Topology {
	return b.topology
}

// Layer returns the weight matrix of layer i.
func (b *Brain) Layer(i int) mat.Matrix {
	return b.layers[i]
}

// Forward runs the network. A bias of 1 is appended to the input and to
// every hidden activation; each layer applies tanh, so outputs lie in
// (-1, 1). Forward panics if len(inputs) does not match the topology.
func (b *Brain) Forward(inputs []float64) []float64 {
	if len(inputs) != b.topology.Inputs {
		panic("neural: Forward input size does not match topology")
	}
	x := withBias(inputs)
	for i, w := range b.layers {
		_, out := w.Dims()
		y := mat.NewVecDense(out, nil)
		y.MulVec(w.T(), mat.NewVecDense(len(x), x))

		act := make([]float64, out)
		for j := range act {
			act[j] = math.Tanh(y.AtVec(j))
		}
		if i == len(b.layers)-1 {
			return act
		}
		x = withBias(act)
	}
	return nil
}

func withBias(v []float64) []float64 {
	x := make([]float64, len(v)+1)
	copy(x, v)
	x[len(v)] = 1
	return x
}
