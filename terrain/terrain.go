// Package terrain places static barriers on a grid before any organism is
// added. Each generator is one closed variant selected by its Kind.
package terrain

import (
	"fmt"
	"math/rand"
)

// Kind names a terrain variant in configuration.
type Kind string

const (
	KindNone           Kind = "no_gen"
	KindSimpleBarriers Kind = "simple_barriers"
	KindForgivenCaves  Kind = "forgiven_caves"
	KindNoiseCaves     Kind = "noise_caves"
)

// Kinds lists every supported variant.
func Kinds() []Kind {
	return []Kind{KindNone, KindSimpleBarriers, KindForgivenCaves, KindNoiseCaves}
}

// Grid is the part of a world a generator may touch.
type Grid interface {
	Width() int
	Height() int
	SetStaticBarrier(x, y int) error
}

// Generator fills a grid with barriers. It is called exactly once, on an
// empty world.
type Generator interface {
	Kind() Kind
	Generate(g Grid, rng *rand.Rand) error
}

// None leaves the grid open.
type None struct{}

func (None) Kind() Kind                      { return KindNone }
func (None) Generate(Grid, *rand.Rand) error { return nil }

// applyMask turns every true cell of a row-major mask into a barrier.
func applyMask(g Grid, mask [][]bool) error {
	for y, row := range mask {
		for x, rock := range row {
			if !rock {
				continue
			}
			if err := g.SetStaticBarrier(x, y); err != nil {
				return fmt.Errorf("terrain: %w", err)
			}
		}
	}
	return nil
}

func newMask(w, h int) [][]bool {
	mask := make([][]bool, h)
	for y := range mask {
		mask[y] = make([]bool, w)
	}
	return mask
}

// wallEdges marks the outer ring of the mask.
func wallEdges(mask [][]bool) {
	h := len(mask)
	if h == 0 {
		return
	}
	w := len(mask[0])
	for x := 0; x < w; x++ {
		mask[0][x] = true
		mask[h-1][x] = true
	}
	for y := 0; y < h; y++ {
		mask[y][0] = true
		mask[y][w-1] = true
	}
}
