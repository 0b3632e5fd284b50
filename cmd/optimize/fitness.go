package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/registry"
	"github.com/pthm-cable/evogrid/world"
)

// FitnessEvaluator runs headless experiments and scores survival.
type FitnessEvaluator struct {
	params     *ParamVector
	configPath string
	seeds      []int64
	tail       int // generations averaged at the end of each run
	registry   *registry.Registry
	logger     *slog.Logger

	mu           sync.Mutex
	lastSurvival float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, configPath string, seeds []int64, tail int, logger *slog.Logger) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		configPath: configPath,
		seeds:      seeds,
		tail:       max(tail, 1),
		registry:   registry.New(),
		logger:     logger,
	}
}

// LastSurvival returns the mean survival rate of the most recent Evaluate.
func (fe *FitnessEvaluator) LastSurvival() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastSurvival
}

// Evaluate returns the negated mean survival rate over the last generations
// of every seed (lower = better). A failed run scores 0 survival.
func (fe *FitnessEvaluator) Evaluate(raw []float64) float64 {
	results := make([]float64, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rate, err := fe.runSeed(raw, seed)
			if err != nil {
				fe.logger.Error("evaluation failed", "seed", seed, "error", err)
				return
			}
			results[i] = rate
		}()
	}
	wg.Wait()

	mean := 0.0
	for _, r := range results {
		mean += r
	}
	mean /= float64(len(results))

	fe.mu.Lock()
	fe.lastSurvival = mean
	fe.mu.Unlock()
	return -mean
}

func (fe *FitnessEvaluator) runSeed(raw []float64, seed int64) (float64, error) {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return 0, err
	}
	fe.params.ApplyToConfig(cfg, raw)
	cfg.Seed = seed
	cfg.Callbacks = nil
	cfg.OutputDir = ""
	cfg.SeedPopulation = nil

	rec := &survivalRecorder{Base: evolution.Base{ObserverName: "fitness"}}
	run, err := fe.registry.Assemble(context.Background(), cfg, fe.logger, registry.Options{
		Headless: true,
		Extra:    []evolution.Observer{rec},
	})
	if err != nil {
		return 0, err
	}
	if err := run.Execute(context.Background()); err != nil {
		return 0, err
	}
	if len(rec.rates) == 0 {
		return 0, fmt.Errorf("seed %d ran no generations", seed)
	}

	tail := rec.rates[max(0, len(rec.rates)-fe.tail):]
	sum := 0.0
	for _, r := range tail {
		sum += r
	}
	return sum / float64(len(tail)), nil
}

// survivalRecorder keeps the survival rate of every generation.
type survivalRecorder struct {
	evolution.Base
	rates []float64
}

func (s *survivalRecorder) OnGenerationFinish(_ int, r *evolution.GenerationReport, _ world.View) error {
	s.rates = append(s.rates, r.SurvivalRate)
	return nil
}
