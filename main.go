package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/registry"
	"github.com/pthm-cable/evogrid/renderer"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to an experiment YAML file (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without opening a window")
	seed := flag.Int64("seed", 0, "RNG seed (overrides the config)")
	generations := flag.Int("generations", 0, "Number of generations (overrides the config)")
	outputDir := flag.String("output-dir", "", "Directory for run output (overrides the config)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		slog.Error("invalid log level", "level", *logLevel, "error", err)
		os.Exit(2)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "seed":
			cfg.Seed = *seed
		case "generations":
			cfg.Generations = *generations
		case "output-dir":
			cfg.OutputDir = *outputDir
		}
	})

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	reg := registry.New()
	if err := reg.RegisterObserver(registry.ObserverViewer, renderer.NewViewerObserver); err != nil {
		slog.Error("registering viewer", "error", err)
		os.Exit(1)
	}

	run, err := reg.Assemble(ctx, cfg, logger, registry.Options{Headless: *headless, Cancel: cancel})
	if err != nil {
		slog.Error("failed to assemble run", "error", err)
		os.Exit(1)
	}

	slog.Info("starting evolution",
		"experiment", cfg.ExperimentName,
		"run_id", run.ID,
		"seed", cfg.Seed,
		"generations", cfg.Generations,
		"headless", *headless,
	)

	if err := run.Execute(ctx); err != nil {
		if errors.Is(err, context.Canceled) && sigCtx.Err() == nil {
			slog.Info("run stopped from viewer", "generation", run.Driver.Generation())
			return
		}
		if errors.Is(err, context.Canceled) {
			slog.Warn("run interrupted", "generation", run.Driver.Generation(), "error", err)
			os.Exit(130)
		}
		slog.Error("run failed", "generation", run.Driver.Generation(), "error", err)
		os.Exit(1)
	}
	slog.Info("run finished", "run_id", run.ID, "dir", run.Dir)
}
