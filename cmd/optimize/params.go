package main

import (
	"math"

	"github.com/pthm-cable/evogrid/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // config key
	Min     float64 // lower bound
	Max     float64 // upper bound
	Default float64
	apply   func(cfg *config.Config, v float64)
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
func NewParamVector(base *config.Config) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{
				Name: "mutation_rate", Min: 0, Max: 0.5, Default: base.MutationRate,
				apply: func(cfg *config.Config, v float64) { cfg.MutationRate = v },
			},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the starting point in raw units.
func (pv *ParamVector) DefaultVector() []float64 {
	x := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		x[i] = s.Default
	}
	return x
}

// Normalize maps raw values to [0, 1].
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	x := make([]float64, len(raw))
	for i, s := range pv.Specs {
		x[i] = (raw[i] - s.Min) / (s.Max - s.Min)
	}
	return x
}

// Denormalize maps [0, 1] values back to raw units. Values outside the
// unit range are not clamped.
func (pv *ParamVector) Denormalize(x []float64) []float64 {
	raw := make([]float64, len(x))
	for i, s := range pv.Specs {
		raw[i] = s.Min + x[i]*(s.Max-s.Min)
	}
	return raw
}

// Clamp restricts raw values to their bounds.
func (pv *ParamVector) Clamp(raw []float64) []float64 {
	out := make([]float64, len(raw))
	for i, s := range pv.Specs {
		out[i] = math.Max(s.Min, math.Min(s.Max, raw[i]))
	}
	return out
}

// ApplyToConfig writes clamped raw values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, raw []float64) {
	for i, v := range pv.Clamp(raw) {
		pv.Specs[i].apply(cfg, v)
	}
}
