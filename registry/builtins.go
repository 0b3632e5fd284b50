package registry

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/repopulation"
	"github.com/pthm-cable/evogrid/selection"
	"github.com/pthm-cable/evogrid/storage"
	"github.com/pthm-cable/evogrid/telemetry"
	"github.com/pthm-cable/evogrid/terrain"
)

// Observer keys of the built-in callbacks.
const (
	ObserverLogger     = "logger"
	ObserverHistory    = "history"
	ObserverCheckpoint = "genome_checkpoint"
	ObserverStepStats  = "step_stats"
	ObserverPerf       = "perf"
	ObserverViewer     = "viewer"
)

func registerBuiltins(r *Registry) {
	must(r.RegisterSelection(string(selection.KindOneSideSurvive), func(block config.Strategy) (selection.Strategy, error) {
		var p selection.OneSideParams
		if err := block.Decode(&p); err != nil {
			return nil, err
		}
		return selection.NewOneSide(p)
	}))
	must(r.RegisterSelection(string(selection.KindRectRegion), func(block config.Strategy) (selection.Strategy, error) {
		var p selection.RectParams
		if err := block.Decode(&p); err != nil {
			return nil, err
		}
		return selection.NewRect(p)
	}))

	must(r.RegisterRepopulation(string(repopulation.KindRandomCrossover), func(config.Strategy) (repopulation.Strategy, error) {
		return repopulation.RandomCrossover{}, nil
	}))
	must(r.RegisterRepopulation(string(repopulation.KindRandomClone), func(config.Strategy) (repopulation.Strategy, error) {
		return repopulation.RandomClone{}, nil
	}))

	must(r.RegisterTerrain(string(terrain.KindNone), func(config.Strategy) (terrain.Generator, error) {
		return terrain.None{}, nil
	}))
	must(r.RegisterTerrain(string(terrain.KindSimpleBarriers), func(block config.Strategy) (terrain.Generator, error) {
		var p terrain.SimpleBarriersParams
		if err := block.Decode(&p); err != nil {
			return nil, err
		}
		return terrain.NewSimpleBarriers(p)
	}))
	must(r.RegisterTerrain(string(terrain.KindForgivenCaves), func(block config.Strategy) (terrain.Generator, error) {
		p := terrain.DefaultCaveParams()
		if err := block.Decode(&p); err != nil {
			return nil, err
		}
		return terrain.NewForgivenCaves(p)
	}))
	must(r.RegisterTerrain(string(terrain.KindNoiseCaves), func(block config.Strategy) (terrain.Generator, error) {
		p := terrain.DefaultNoiseParams()
		if err := block.Decode(&p); err != nil {
			return nil, err
		}
		return terrain.NewNoiseCaves(p)
	}))

	must(r.RegisterObserver(ObserverLogger, newLogger))
	must(r.RegisterObserver(ObserverHistory, newHistory))
	must(r.RegisterObserver(ObserverCheckpoint, newCheckpointer))
	must(r.RegisterObserver(ObserverStepStats, func(_ Env, name string, block config.Strategy) (evolution.Observer, error) {
		return telemetry.NewStepStats(base(name, block)), nil
	}))
	must(r.RegisterObserver(ObserverPerf, newPerf))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func base(name string, block config.Strategy) evolution.Base {
	return evolution.Base{ObserverName: name, ObserverPriority: block.Priority()}
}

func newLogger(env Env, name string, block config.Strategy) (evolution.Observer, error) {
	p := struct {
		LogFrequency int `yaml:"log_frequency"`
	}{LogFrequency: 1}
	if err := block.Decode(&p); err != nil {
		return nil, err
	}
	return telemetry.NewLogger(base(name, block), env.Logger, p.LogFrequency, env.Config.Generations), nil
}

func newPerf(env Env, name string, block config.Strategy) (evolution.Observer, error) {
	p := struct {
		Window       int `yaml:"window"`
		LogFrequency int `yaml:"log_frequency"`
	}{Window: 10, LogFrequency: 10}
	if err := block.Decode(&p); err != nil {
		return nil, err
	}
	return telemetry.NewPerf(base(name, block), env.Logger, p.Window, p.LogFrequency), nil
}

// newHistory is skipped when the run has no output directory.
func newHistory(env Env, name string, block config.Strategy) (evolution.Observer, error) {
	if env.OutputDir == "" {
		return nil, nil
	}
	return telemetry.NewHistory(base(name, block), env.OutputDir, env.Config)
}

func newCheckpointer(env Env, name string, block config.Strategy) (evolution.Observer, error) {
	p := struct {
		Backend   string `yaml:"backend"`
		Path      string `yaml:"path"`
		Frequency int    `yaml:"frequency"`
	}{Backend: "memory", Frequency: 1}
	if err := block.Decode(&p); err != nil {
		return nil, err
	}
	if p.Backend == "sqlite" && p.Path == "" {
		if env.OutputDir == "" {
			return nil, errors.New("sqlite checkpoints need a path or an output directory")
		}
		p.Path = filepath.Join(env.OutputDir, "genomes.db")
	}

	store, err := storage.NewStore(p.Backend, p.Path)
	if err != nil {
		return nil, err
	}
	ctx := env.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := store.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return telemetry.NewCheckpointer(base(name, block), store, telemetry.CheckpointOptions{
		RunID:       env.RunID,
		Topology:    env.Topology,
		Frequency:   p.Frequency,
		Generations: env.Config.Generations,
		Logger:      env.Logger,
	}), nil
}
