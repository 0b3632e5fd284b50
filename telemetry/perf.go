package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/world"
)

// Phase names of a generation as seen between observer callbacks. Steps
// include the reset before the first step; breeding covers selection,
// repopulation and the observers notified before this one.
const (
	PhaseSteps    = "steps"
	PhaseBreeding = "breeding"
)

// PerfSample holds timing data for a single generation.
type PerfSample struct {
	Duration time.Duration
	Steps    int
	Phases   map[string]time.Duration
}

// PerfCollector tracks generation timings over a rolling window.
type PerfCollector struct {
	windowSize  int
	samples     []PerfSample
	writeIndex  int
	sampleCount int

	current    PerfSample
	start      time.Time
	phaseStart time.Time
	lastPhase  string
}

// NewPerfCollector creates a collector averaging the last windowSize
// generations.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 10
	}
	return &PerfCollector{
		windowSize: windowSize,
		samples:    make([]PerfSample, windowSize),
	}
}

// Begin starts timing a generation at t.
func (p *PerfCollector) Begin(t time.Time) {
	p.start = t
	p.current = PerfSample{Phases: make(map[string]time.Duration)}
	p.lastPhase = ""
}

// Mark ends the running phase at t and starts phase.
func (p *PerfCollector) Mark(phase string, t time.Time) {
	if p.lastPhase != "" {
		p.current.Phases[p.lastPhase] += t.Sub(p.phaseStart)
	}
	p.phaseStart = t
	p.lastPhase = phase
}

// AddSteps counts steps run in the current generation.
func (p *PerfCollector) AddSteps(n int) {
	p.current.Steps += n
}

// End finishes the generation at t and records the sample.
func (p *PerfCollector) End(t time.Time) {
	if p.lastPhase != "" {
		p.current.Phases[p.lastPhase] += t.Sub(p.phaseStart)
	}
	p.current.Duration = t.Sub(p.start)

	p.samples[p.writeIndex] = p.current
	p.writeIndex = (p.writeIndex + 1) % p.windowSize
	if p.sampleCount < p.windowSize {
		p.sampleCount++
	}
	p.lastPhase = ""
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	Generations int

	AvgGeneration time.Duration
	MinGeneration time.Duration
	MaxGeneration time.Duration

	// Phase breakdown (average durations and share of a generation)
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	StepsPerSecond float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	stats := PerfStats{
		Generations: p.sampleCount,
		PhaseAvg:    make(map[string]time.Duration),
		PhasePct:    make(map[string]float64),
	}
	if p.sampleCount == 0 {
		return stats
	}

	var total time.Duration
	steps := 0
	phaseSum := make(map[string]time.Duration)
	for i := 0; i < p.sampleCount; i++ {
		s := p.samples[i]
		total += s.Duration
		steps += s.Steps
		if i == 0 || s.Duration < stats.MinGeneration {
			stats.MinGeneration = s.Duration
		}
		if s.Duration > stats.MaxGeneration {
			stats.MaxGeneration = s.Duration
		}
		for phase, d := range s.Phases {
			phaseSum[phase] += d
		}
	}

	stats.AvgGeneration = total / time.Duration(p.sampleCount)
	for phase, sum := range phaseSum {
		stats.PhaseAvg[phase] = sum / time.Duration(p.sampleCount)
		if total > 0 {
			stats.PhasePct[phase] = float64(sum) / float64(total) * 100
		}
	}
	if st := phaseSum[PhaseSteps]; st > 0 {
		stats.StepsPerSecond = float64(steps) / st.Seconds()
	}
	return stats
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("window", s.Generations),
		slog.Int64("avg_generation_ms", s.AvgGeneration.Milliseconds()),
		slog.Int64("min_generation_ms", s.MinGeneration.Milliseconds()),
		slog.Int64("max_generation_ms", s.MaxGeneration.Milliseconds()),
		slog.Float64("steps_per_sec", s.StepsPerSecond),
	}

	phases := make([]string, 0, len(s.PhasePct))
	for phase := range s.PhasePct {
		phases = append(phases, phase)
	}
	sort.Strings(phases)
	for _, phase := range phases {
		attrs = append(attrs, slog.Float64(phase+"_pct", s.PhasePct[phase]))
	}
	return slog.GroupValue(attrs...)
}

// Perf is an observer that times generations from its own callbacks and
// logs the rolling statistics every Frequency generations.
type Perf struct {
	evolution.Base

	collector *PerfCollector
	logger    *slog.Logger
	frequency int
	now       func() time.Time

	mark  time.Time // end of the previous generation or step
	inGen bool
}

// NewPerf creates a Perf observer. Timing starts at construction.
func NewPerf(base evolution.Base, logger *slog.Logger, window, frequency int) *Perf {
	return newPerf(base, logger, window, frequency, time.Now)
}

func newPerf(base evolution.Base, logger *slog.Logger, window, frequency int, now func() time.Time) *Perf {
	if frequency < 1 {
		frequency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Perf{
		Base:      base,
		collector: NewPerfCollector(window),
		logger:    logger,
		frequency: frequency,
		now:       now,
		mark:      now(),
	}
}

func (p *Perf) begin() {
	if !p.inGen {
		p.collector.Begin(p.mark)
		p.collector.Mark(PhaseSteps, p.mark)
		p.inGen = true
	}
}

func (p *Perf) OnStepFinish(int, world.View) map[string]float64 {
	p.begin()
	p.collector.AddSteps(1)
	p.mark = p.now()
	return nil
}

func (p *Perf) OnGenerationFinish(gen int, _ *evolution.GenerationReport, _ world.View) error {
	p.begin()
	p.collector.Mark(PhaseBreeding, p.mark)
	p.mark = p.now()
	p.collector.End(p.mark)
	p.inGen = false

	if (gen+1)%p.frequency == 0 {
		p.logger.Info("perf", "generation", gen, "stats", p.collector.Stats())
	}
	return nil
}

// Stats returns the statistics over the current window.
func (p *Perf) Stats() PerfStats {
	return p.collector.Stats()
}
