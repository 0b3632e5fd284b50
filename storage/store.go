// Package storage persists genome checkpoints so runs can be inspected or
// seeded from a previous population.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pthm-cable/evogrid/neural"
)

// Checkpoint is every genome of one run at the end of one generation.
type Checkpoint struct {
	RunID      string
	Generation int
	Topology   string // neural.Topology.String() of the genomes
	CreatedAt  time.Time
	Genomes    []neural.Genome
}

// Store saves and loads checkpoints.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, cp Checkpoint) error
	GetCheckpoint(ctx context.Context, runID string, generation int) (Checkpoint, bool, error)
	LatestCheckpoint(ctx context.Context, runID string) (Checkpoint, bool, error)
	Generations(ctx context.Context, runID string) ([]int, error)
	Close() error
}

// NewStore opens a backend by name. path is only used by sqlite.
func NewStore(kind, path string) (Store, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}
