package evolution

import (
	"log/slog"
	"maps"
	"slices"
	"time"
)

// GenerationReport summarises one finished generation.
type GenerationReport struct {
	Generation int `csv:"generation" yaml:"generation"`

	// Selection
	InitialPopulation   int     `csv:"initial_population" yaml:"initial_population"`
	SurvivingPopulation int     `csv:"surviving_population_size" yaml:"surviving_population_size"`
	SurvivalRate        float64 `csv:"survival_rate" yaml:"survival_rate"`

	// Repopulation
	NewOrganisms int  `csv:"n_new_organisms" yaml:"n_new_organisms"`
	RandomSeeded bool `csv:"random_seeded" yaml:"random_seeded"`
	Population   int  `csv:"population" yaml:"population"`

	// Movement over all steps
	MovesAttempted int `csv:"moves_attempted" yaml:"moves_attempted"`
	MovesBlocked   int `csv:"moves_blocked" yaml:"moves_blocked"`

	// Gene statistics after repopulation
	GeneMean      float64 `csv:"gene_mean" yaml:"gene_mean"`
	GeneStd       float64 `csv:"gene_std" yaml:"gene_std"`
	GeneDiversity float64 `csv:"gene_diversity" yaml:"gene_diversity"`

	Elapsed time.Duration `csv:"-" yaml:"-"`

	// Metrics returned by observers after each step; later steps overwrite.
	StepMetrics map[string]float64 `csv:"-" yaml:"step_metrics,omitempty"`
}

func (r *GenerationReport) mergeStepMetrics(m map[string]float64) {
	if len(m) == 0 {
		return
	}
	if r.StepMetrics == nil {
		r.StepMetrics = make(map[string]float64, len(m))
	}
	maps.Copy(r.StepMetrics, m)
}

// LogValue implements slog.LogValuer for structured logging.
func (r *GenerationReport) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("generation", r.Generation),
		slog.Int("initial_population", r.InitialPopulation),
		slog.Int("surviving_population_size", r.SurvivingPopulation),
		slog.Float64("survival_rate", r.SurvivalRate),
		slog.Int("n_new_organisms", r.NewOrganisms),
		slog.Int("population", r.Population),
		slog.Int("moves_attempted", r.MovesAttempted),
		slog.Int("moves_blocked", r.MovesBlocked),
		slog.Float64("gene_mean", r.GeneMean),
		slog.Float64("gene_std", r.GeneStd),
		slog.Float64("gene_diversity", r.GeneDiversity),
		slog.Duration("elapsed", r.Elapsed),
	}
	if r.RandomSeeded {
		attrs = append(attrs, slog.Bool("random_seeded", true))
	}
	for _, k := range slices.Sorted(maps.Keys(r.StepMetrics)) {
		attrs = append(attrs, slog.Float64(k, r.StepMetrics[k]))
	}
	return slog.GroupValue(attrs...)
}
