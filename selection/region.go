package selection

import (
	"fmt"

	"github.com/pthm-cable/evogrid/world"
)

// Side is the edge of the world a one-sided survival region hugs.
type Side string

const (
	SideLeft   Side = "left"
	SideRight  Side = "right"
	SideTop    Side = "top"
	SideBottom Side = "bottom"
)

// OneSideParams configures one_side_survive.
type OneSideParams struct {
	Side       Side    `yaml:"survival_side"`
	Proportion float64 `yaml:"survival_region_proportion"`
}

// OneSide keeps organisms within Proportion of the world along one side.
type OneSide struct {
	side       Side
	proportion float64
}

// NewOneSide validates p.
func NewOneSide(p OneSideParams) (*OneSide, error) {
	switch p.Side {
	case SideLeft, SideRight, SideTop, SideBottom:
	case "":
		return nil, fmt.Errorf("one_side_survive: survival_side is required")
	default:
		return nil, fmt.Errorf("one_side_survive: survival_side %q is not one of left, right, top, bottom", p.Side)
	}
	if p.Proportion <= 0 || p.Proportion >= 1 {
		return nil, fmt.Errorf("one_side_survive: survival_region_proportion %g outside (0,1)", p.Proportion)
	}
	return &OneSide{side: p.Side, proportion: p.Proportion}, nil
}

func (*OneSide) Kind() Kind { return KindOneSideSurvive }

func (s *OneSide) Survives(v world.View, m world.Member) bool {
	x := float64(m.Position.X) / float64(v.Width())
	y := float64(m.Position.Y) / float64(v.Height())
	switch s.side {
	case SideLeft:
		return x < s.proportion
	case SideRight:
		return x > 1-s.proportion
	case SideTop:
		return y < s.proportion
	case SideBottom:
		return y > 1-s.proportion
	}
	return false
}

// RectParams configures rect_region as proportions [x0, y0, x1, y1).
type RectParams struct {
	Region [4]float64 `yaml:"region"`
}

// Rect keeps organisms whose normalised position lies inside a rectangle.
type Rect struct {
	x0, y0, x1, y1 float64
}

// NewRect validates p.
func NewRect(p RectParams) (*Rect, error) {
	r := p.Region
	for _, v := range r {
		if v < 0 || v > 1 {
			return nil, fmt.Errorf("rect_region: proportion %g outside [0,1]", v)
		}
	}
	if r[0] >= r[2] || r[1] >= r[3] {
		return nil, fmt.Errorf("rect_region: region %v is empty", r)
	}
	return &Rect{x0: r[0], y0: r[1], x1: r[2], y1: r[3]}, nil
}

func (*Rect) Kind() Kind { return KindRectRegion }

func (s *Rect) Survives(v world.View, m world.Member) bool {
	x := float64(m.Position.X) / float64(v.Width())
	y := float64(m.Position.Y) / float64(v.Height())
	return x >= s.x0 && x < s.x1 && y >= s.y0 && y < s.y1
}
