package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
)

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]map[int]Checkpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.initialized = true
		s.runs = make(map[string]map[int]Checkpoint)
	}
	return nil
}

func (s *MemoryStore) SaveCheckpoint(_ context.Context, cp Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	run, ok := s.runs[cp.RunID]
	if !ok {
		run = make(map[int]Checkpoint)
		s.runs[cp.RunID] = run
	}
	cp.Genomes = cloneGenomes(cp.Genomes)
	run[cp.Generation] = cp
	return nil
}

func (s *MemoryStore) GetCheckpoint(_ context.Context, runID string, generation int) (Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp, ok := s.runs[runID][generation]
	if !ok {
		return Checkpoint{}, false, nil
	}
	cp.Genomes = cloneGenomes(cp.Genomes)
	return cp, true, nil
}

func (s *MemoryStore) LatestCheckpoint(ctx context.Context, runID string) (Checkpoint, bool, error) {
	gens, err := s.Generations(ctx, runID)
	if err != nil || len(gens) == 0 {
		return Checkpoint{}, false, err
	}
	return s.GetCheckpoint(ctx, runID, gens[len(gens)-1])
}

func (s *MemoryStore) Generations(_ context.Context, runID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gens := make([]int, 0, len(s.runs[runID]))
	for g := range s.runs[runID] {
		gens = append(gens, g)
	}
	slices.Sort(gens)
	return gens, nil
}

func (s *MemoryStore) Close() error { return nil }
