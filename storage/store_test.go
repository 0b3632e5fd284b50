package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/evogrid/neural"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db")),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			cp := Checkpoint{
				RunID:      "run-1",
				Generation: 3,
				Topology:   "6-[8]-4",
				CreatedAt:  time.Unix(1700000000, 0).UTC(),
				Genomes:    []neural.Genome{{0.1, -0.2}, {0.5, 0.25}},
			}
			require.NoError(t, store.SaveCheckpoint(ctx, cp))

			got, ok, err := store.GetCheckpoint(ctx, "run-1", 3)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, cp.Topology, got.Topology)
			assert.Equal(t, cp.Genomes, got.Genomes)
			assert.True(t, cp.CreatedAt.Equal(got.CreatedAt))

			_, ok, err = store.GetCheckpoint(ctx, "run-1", 4)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreLatestAndGenerations(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			for _, gen := range []int{10, 0, 5} {
				require.NoError(t, store.SaveCheckpoint(ctx, Checkpoint{
					RunID:      "run",
					Generation: gen,
					Genomes:    []neural.Genome{{float64(gen)}},
				}))
			}
			require.NoError(t, store.SaveCheckpoint(ctx, Checkpoint{RunID: "other", Generation: 99}))

			gens, err := store.Generations(ctx, "run")
			require.NoError(t, err)
			assert.Equal(t, []int{0, 5, 10}, gens)

			latest, ok, err := store.LatestCheckpoint(ctx, "run")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 10, latest.Generation)
			assert.Equal(t, []neural.Genome{{10}}, latest.Genomes)

			_, ok, err = store.LatestCheckpoint(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Init(ctx))
			t.Cleanup(func() { _ = store.Close() })

			require.NoError(t, store.SaveCheckpoint(ctx, Checkpoint{RunID: "r", Generation: 1, Genomes: []neural.Genome{{1}}}))
			require.NoError(t, store.SaveCheckpoint(ctx, Checkpoint{RunID: "r", Generation: 1, Genomes: []neural.Genome{{2}}}))

			got, ok, err := store.GetCheckpoint(ctx, "r", 1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, []neural.Genome{{2}}, got.Genomes)
		})
	}
}

func TestMemoryStoreCopiesGenomes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	g := neural.Genome{1, 2}
	require.NoError(t, store.SaveCheckpoint(ctx, Checkpoint{RunID: "r", Genomes: []neural.Genome{g}}))
	g[0] = 9

	got, _, err := store.GetCheckpoint(ctx, "r", 0)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Genomes[0][0])
}

func TestUninitializedStore(t *testing.T) {
	ctx := context.Background()
	assert.Error(t, NewMemoryStore().SaveCheckpoint(ctx, Checkpoint{}))
	assert.Error(t, NewSQLiteStore("x.db").SaveCheckpoint(ctx, Checkpoint{}))
	assert.Error(t, NewSQLiteStore("").Init(ctx))
}

func TestNewStore(t *testing.T) {
	s, err := NewStore("", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = NewStore("sqlite", "db")
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)

	_, err = NewStore("postgres", "")
	assert.Error(t, err)
}

func TestDecodeGenomesVersion(t *testing.T) {
	_, err := DecodeGenomes([]byte(`{"schema_version":7,"genomes":[]}`))
	assert.ErrorIs(t, err, ErrVersionMismatch)

	data, err := EncodeGenomes([]neural.Genome{{0.5}})
	require.NoError(t, err)
	got, err := DecodeGenomes(data)
	require.NoError(t, err)
	assert.Equal(t, []neural.Genome{{0.5}}, got)
}
