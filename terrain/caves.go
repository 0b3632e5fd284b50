package terrain

import (
	"fmt"
	"math/rand"

	"github.com/ojrac/opensimplex-go"
)

// CaveParams tunes the cellular-automaton cave generator.
type CaveParams struct {
	FillProb    float64 `yaml:"fillprob"`
	R1Cutoff    int     `yaml:"r1_cutoff"`
	R2Cutoff    int     `yaml:"r2_cutoff"`
	IncludeWall bool    `yaml:"include_wall"`
}

// DefaultCaveParams returns the standard cave settings.
func DefaultCaveParams() CaveParams {
	return CaveParams{FillProb: 0.4, R1Cutoff: 5, R2Cutoff: 2, IncludeWall: true}
}

// ForgivenCaves grows caves from random fill: a cell becomes rock when its
// 3x3 block holds at least r1_cutoff rocks, or (first pass only) when its
// 5x5 block holds at most r2_cutoff. With include_wall, everything outside
// the inscribed ellipse and the outer ring become rock too.
type ForgivenCaves struct {
	p CaveParams
}

// NewForgivenCaves validates p.
func NewForgivenCaves(p CaveParams) (*ForgivenCaves, error) {
	if p.FillProb < 0 || p.FillProb > 1 {
		return nil, fmt.Errorf("forgiven_caves: fillprob %g outside [0,1]", p.FillProb)
	}
	if p.R1Cutoff < 0 || p.R1Cutoff > 9 {
		return nil, fmt.Errorf("forgiven_caves: r1_cutoff %d outside [0,9]", p.R1Cutoff)
	}
	if p.R2Cutoff < 0 {
		return nil, fmt.Errorf("forgiven_caves: r2_cutoff %d is negative", p.R2Cutoff)
	}
	return &ForgivenCaves{p: p}, nil
}

func (*ForgivenCaves) Kind() Kind { return KindForgivenCaves }

func (c *ForgivenCaves) Generate(g Grid, rng *rand.Rand) error {
	return applyMask(g, c.mask(g.Width(), g.Height(), rng))
}

func (c *ForgivenCaves) mask(w, h int, rng *rand.Rand) [][]bool {
	rock := newMask(w, h)
	for y := range rock {
		for x := range rock[y] {
			rock[y][x] = rng.Float64() < c.p.FillProb
		}
	}

	// Both passes update in place, column by column.
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			rock[y][x] = countRocks(rock, x, y, 1) >= c.p.R1Cutoff || countRocks(rock, x, y, 2) <= c.p.R2Cutoff
		}
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			rock[y][x] = countRocks(rock, x, y, 1) >= c.p.R1Cutoff
		}
	}

	if c.p.IncludeWall {
		wallEllipse(rock)
		wallEdges(rock)
	}
	return rock
}

// countRocks counts rock cells in the square of radius r around (x, y),
// including the centre, clipped to the grid.
func countRocks(rock [][]bool, x, y, r int) int {
	n := 0
	for yy := max(y-r, 0); yy < min(y+r+1, len(rock)); yy++ {
		row := rock[yy]
		for xx := max(x-r, 0); xx < min(x+r+1, len(row)); xx++ {
			if row[xx] {
				n++
			}
		}
	}
	return n
}

// wallEllipse fills everything outside the ellipse inscribed two cells
// inside the grid.
func wallEllipse(rock [][]bool) {
	h := len(rock)
	w := len(rock[0])
	rx, ry := float64(w)/2-2, float64(h)/2-2
	if rx <= 0 || ry <= 0 {
		return
	}
	cx, cy := float64(w)/2, float64(h)/2
	for y := range rock {
		for x := range rock[y] {
			dx, dy := (float64(x)-cx)/rx, (float64(y)-cy)/ry
			if dx*dx+dy*dy > 1 {
				rock[y][x] = true
			}
		}
	}
}

// NoiseParams tunes the simplex-noise cave generator.
type NoiseParams struct {
	Scale       float64 `yaml:"scale"`
	Threshold   float64 `yaml:"threshold"`
	IncludeWall bool    `yaml:"include_wall"`
}

// DefaultNoiseParams returns the standard noise settings.
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{Scale: 0.1, Threshold: 0.65}
}

// NoiseCaves marks a cell as rock where normalized simplex noise exceeds
// the threshold.
type NoiseCaves struct {
	p NoiseParams
}

// NewNoiseCaves validates p.
func NewNoiseCaves(p NoiseParams) (*NoiseCaves, error) {
	if p.Scale <= 0 {
		return nil, fmt.Errorf("noise_caves: scale must be positive, got %g", p.Scale)
	}
	if p.Threshold < 0 || p.Threshold > 1 {
		return nil, fmt.Errorf("noise_caves: threshold %g outside [0,1]", p.Threshold)
	}
	return &NoiseCaves{p: p}, nil
}

func (*NoiseCaves) Kind() Kind { return KindNoiseCaves }

func (n *NoiseCaves) Generate(g Grid, rng *rand.Rand) error {
	noise := opensimplex.NewNormalized(rng.Int63())
	rock := newMask(g.Width(), g.Height())
	for y := range rock {
		for x := range rock[y] {
			rock[y][x] = noise.Eval2(float64(x)*n.p.Scale, float64(y)*n.p.Scale) > n.p.Threshold
		}
	}
	if n.p.IncludeWall {
		wallEdges(rock)
	}
	return applyMask(g, rock)
}
