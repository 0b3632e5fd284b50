// Package selection culls organisms that fail a survival predicate.
package selection

import (
	"fmt"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/evogrid/world"
)

// Kind names a selection variant in configuration.
type Kind string

const (
	KindOneSideSurvive Kind = "one_side_survive"
	KindRectRegion     Kind = "rect_region"
)

// Kinds lists every supported variant.
func Kinds() []Kind {
	return []Kind{KindOneSideSurvive, KindRectRegion}
}

// Strategy decides whether one organism survives the generation.
type Strategy interface {
	Kind() Kind
	Survives(v world.View, m world.Member) bool
}

// World is what Apply needs from a world.
type World interface {
	world.View
	Kill(e ecs.Entity) error
}

// Result summarises one selection pass.
type Result struct {
	Initial   int
	Survivors int
	Rate      float64 // Survivors / Initial, or 1 for an empty population
}

// Apply evaluates every organism and then kills all that failed. Nothing is
// removed until every organism has been evaluated.
func Apply(w World, s Strategy) (Result, error) {
	members := w.Members()
	res := Result{Initial: len(members), Rate: 1}

	var doomed []ecs.Entity
	for _, m := range members {
		if !s.Survives(w, m) {
			doomed = append(doomed, m.Entity)
		}
	}
	for _, e := range doomed {
		if err := w.Kill(e); err != nil {
			return Result{}, fmt.Errorf("selection %s: %w", s.Kind(), err)
		}
	}

	res.Survivors = w.Population()
	if res.Initial > 0 {
		res.Rate = float64(res.Survivors) / float64(res.Initial)
	}
	return res, nil
}
