// Package telemetry provides the built-in run observers: structured
// logging, history files, genome checkpoints and per-step metrics.
package telemetry

import (
	"log/slog"

	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/world"
)

// Logger logs generation reports every Frequency generations and on the
// last one.
type Logger struct {
	evolution.Base

	logger      *slog.Logger
	frequency   int
	generations int
}

// NewLogger creates a Logger. A frequency below 1 logs every generation.
func NewLogger(base evolution.Base, logger *slog.Logger, frequency, generations int) *Logger {
	if frequency < 1 {
		frequency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{Base: base, logger: logger, frequency: frequency, generations: generations}
}

func (l *Logger) OnGenerationFinish(gen int, report *evolution.GenerationReport, _ world.View) error {
	if gen%l.frequency == 0 || gen == l.generations-1 {
		l.logger.Info("generation finished", "report", report)
	}
	return nil
}

func (l *Logger) OnInterrupt(gen int, w world.View) error {
	l.logger.Warn("interrupted", "generation", gen, "population", w.Population())
	return nil
}
