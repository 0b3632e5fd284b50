package telemetry

import (
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/world"
)

// StepStats reports per-step movement and occupancy metrics. The driver
// keeps the values of the last step of each generation.
type StepStats struct {
	evolution.Base
}

// NewStepStats creates a StepStats observer.
func NewStepStats(base evolution.Base) *StepStats {
	return &StepStats{Base: base}
}

func (s *StepStats) OnStepFinish(_ int, w world.View) map[string]float64 {
	last := w.LastStep()
	m := map[string]float64{
		"blocked_move_rate": 0,
		"occupancy":         0,
	}
	if n := last.Attempts(); n > 0 {
		m["blocked_move_rate"] = float64(last.Blocked) / float64(n)
	}
	if open := w.FreeCells() + w.Population(); open > 0 {
		m["occupancy"] = float64(w.Population()) / float64(open)
	}

	members := w.Members()
	if len(members) > 0 {
		var sx, sy float64
		for _, mem := range members {
			sx += float64(mem.Position.X) / float64(w.Width())
			sy += float64(mem.Position.Y) / float64(w.Height())
		}
		m["mean_x"] = sx / float64(len(members))
		m["mean_y"] = sy / float64(len(members))
	}
	return m
}
