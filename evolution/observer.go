package evolution

import (
	"cmp"
	"slices"

	"github.com/pthm-cable/evogrid/world"
)

// Observer receives lifecycle notifications from the driver. Observers see
// the world read-only and must not mutate it.
type Observer interface {
	// Name identifies the observer in configuration and logs.
	Name() string
	// Priority orders observers: lower runs first, ties by name.
	Priority() int

	// OnStepFinish runs after every step and may return metrics to merge
	// into the generation report.
	OnStepFinish(generation int, w world.View) map[string]float64
	OnGenerationFinish(generation int, report *GenerationReport, w world.View) error
	OnInterrupt(generation int, w world.View) error
}

// Base is a no-op Observer to embed.
type Base struct {
	ObserverName     string
	ObserverPriority int
}

func (b Base) Name() string  { return b.ObserverName }
func (b Base) Priority() int { return b.ObserverPriority }

func (Base) OnStepFinish(int, world.View) map[string]float64             { return nil }
func (Base) OnGenerationFinish(int, *GenerationReport, world.View) error { return nil }
func (Base) OnInterrupt(int, world.View) error                           { return nil }

// SortObservers orders observers by priority, then name. The input is not
// modified.
func SortObservers(obs []Observer) []Observer {
	sorted := slices.Clone(obs)
	slices.SortStableFunc(sorted, func(a, b Observer) int {
		return cmp.Or(cmp.Compare(a.Priority(), b.Priority()), cmp.Compare(a.Name(), b.Name()))
	})
	return sorted
}
