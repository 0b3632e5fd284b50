package terrain

import (
	"errors"
	"fmt"
	"math/rand"
)

// SimpleBarriersParams lists rectangles as proportions of the world size:
// [x, y, width, height].
type SimpleBarriersParams struct {
	Barriers [][4]float64 `yaml:"barriers"`
}

// SimpleBarriers places fixed rectangles. Every rectangle covers at least
// one cell and is clipped to the grid.
type SimpleBarriers struct {
	rects [][4]float64
}

// NewSimpleBarriers validates p.
func NewSimpleBarriers(p SimpleBarriersParams) (*SimpleBarriers, error) {
	if len(p.Barriers) == 0 {
		return nil, errors.New("simple_barriers: barriers is required")
	}
	for i, r := range p.Barriers {
		for _, v := range r {
			if v < 0 || v > 1 {
				return nil, fmt.Errorf("simple_barriers: barrier %d has proportion %g outside [0,1]", i, v)
			}
		}
	}
	return &SimpleBarriers{rects: p.Barriers}, nil
}

func (*SimpleBarriers) Kind() Kind { return KindSimpleBarriers }

func (s *SimpleBarriers) Generate(g Grid, _ *rand.Rand) error {
	w, h := g.Width(), g.Height()
	mask := newMask(w, h)
	for _, r := range s.rects {
		x0 := int(r[0] * float64(w))
		y0 := int(r[1] * float64(h))
		rw := max(1, int(r[2]*float64(w)))
		rh := max(1, int(r[3]*float64(h)))
		for y := y0; y < min(y0+rh, h); y++ {
			for x := x0; x < min(x0+rw, w); x++ {
				mask[y][x] = true
			}
		}
	}
	return applyMask(g, mask)
}
