package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/evogrid/config"
	"github.com/pthm-cable/evogrid/evolution"
	"github.com/pthm-cable/evogrid/world"
)

// History writes every generation report to history.csv and history.yaml
// in the run directory, and the effective configuration to config.yaml
// once at start.
type History struct {
	evolution.Base

	dir           string
	csvFile       *os.File
	headerWritten bool
	reports       []evolution.GenerationReport
}

// NewHistory creates the run directory and its output files.
func NewHistory(base evolution.Base, dir string, cfg *config.Config) (*History, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	if cfg != nil {
		if err := cfg.WriteYAML(filepath.Join(dir, "config.yaml")); err != nil {
			return nil, err
		}
	}

	f, err := os.Create(filepath.Join(dir, "history.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating history.csv: %w", err)
	}
	return &History{Base: base, dir: dir, csvFile: f}, nil
}

// OnGenerationFinish appends the report to both history files.
func (h *History) OnGenerationFinish(_ int, report *evolution.GenerationReport, _ world.View) error {
	h.reports = append(h.reports, *report)

	records := []*evolution.GenerationReport{report}
	if !h.headerWritten {
		// First write includes headers
		if err := gocsv.Marshal(records, h.csvFile); err != nil {
			return fmt.Errorf("writing history.csv: %w", err)
		}
		h.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, h.csvFile); err != nil {
			return fmt.Errorf("writing history.csv: %w", err)
		}
	}
	return h.writeYAML()
}

// OnInterrupt makes sure everything written so far is on disk.
func (h *History) OnInterrupt(int, world.View) error {
	if err := h.csvFile.Sync(); err != nil {
		return fmt.Errorf("syncing history.csv: %w", err)
	}
	return h.writeYAML()
}

// Reports returns the reports recorded so far.
func (h *History) Reports() []evolution.GenerationReport {
	return h.reports
}

// Dir returns the output directory path.
func (h *History) Dir() string {
	return h.dir
}

// writeYAML rewrites history.yaml with every report so far.
func (h *History) writeYAML() error {
	data, err := yaml.Marshal(h.reports)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := os.WriteFile(filepath.Join(h.dir, "history.yaml"), data, 0644); err != nil {
		return fmt.Errorf("writing history.yaml: %w", err)
	}
	return nil
}

// Close flushes and closes the CSV file.
func (h *History) Close() error {
	if h.csvFile == nil {
		return nil
	}
	err := h.csvFile.Close()
	h.csvFile = nil
	return err
}
