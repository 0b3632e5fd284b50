package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, cp Checkpoint) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := EncodeGenomes(cp.Genomes)
	if err != nil {
		return err
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, generation, topology, created_at, population, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			topology = excluded.topology,
			created_at = excluded.created_at,
			population = excluded.population,
			payload = excluded.payload
	`, cp.RunID, cp.Generation, cp.Topology, cp.CreatedAt.UTC().UnixNano(), len(cp.Genomes), payload)
	return err
}

func (s *SQLiteStore) GetCheckpoint(ctx context.Context, runID string, generation int) (Checkpoint, bool, error) {
	return s.queryCheckpoint(ctx, `
		SELECT generation, topology, created_at, payload FROM checkpoints
		WHERE run_id = ? AND generation = ?
	`, runID, generation)
}

func (s *SQLiteStore) LatestCheckpoint(ctx context.Context, runID string) (Checkpoint, bool, error) {
	return s.queryCheckpoint(ctx, `
		SELECT generation, topology, created_at, payload FROM checkpoints
		WHERE run_id = ? ORDER BY generation DESC LIMIT 1
	`, runID)
}

func (s *SQLiteStore) queryCheckpoint(ctx context.Context, query string, runID string, args ...any) (Checkpoint, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Checkpoint{}, false, err
	}

	cp := Checkpoint{RunID: runID}
	var (
		created int64
		payload []byte
	)
	err = db.QueryRowContext(ctx, query, append([]any{runID}, args...)...).Scan(&cp.Generation, &cp.Topology, &created, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Checkpoint{}, false, nil
		}
		return Checkpoint{}, false, err
	}

	cp.CreatedAt = time.Unix(0, created).UTC()
	cp.Genomes, err = DecodeGenomes(payload)
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("decode checkpoint %s/%d: %w", runID, cp.Generation, err)
	}
	return cp, true, nil
}

func (s *SQLiteStore) Generations(ctx context.Context, runID string) ([]int, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT generation FROM checkpoints WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var gens []int
	for rows.Next() {
		var g int
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			topology TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			population INTEGER NOT NULL,
			payload BLOB NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
