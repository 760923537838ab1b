package runlog

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	stores := map[string]Store{}
	for _, cfg := range []Config{
		{Backend: BackendJSONL, Path: filepath.Join(dir, "runs.jsonl")},
		{Backend: BackendRotating, Path: filepath.Join(dir, "rot", "runs.jsonl")},
		{Backend: BackendSQLite, Path: filepath.Join(dir, "runs.db")},
	} {
		s, err := Open(cfg)
		require.NoError(t, err, cfg.Backend)
		t.Cleanup(func() { _ = s.Close() })
		stores[cfg.Backend] = s
	}
	return stores
}

func TestStores_AppendQuery(t *testing.T) {
	base := time.Date(2026, 5, 9, 9, 0, 0, 0, time.UTC)
	recs := []RunRecord{
		{ID: "a", Timestamp: base, Source: "cli", Bookings: 10, Outputs: []string{"sheet.xlsx"}},
		{ID: "b", Timestamp: base.Add(time.Hour), Source: "web", Bookings: 4},
		{ID: "c", Timestamp: base.Add(2 * time.Hour), Source: "cli", Error: "header row not found"},
	}
	ctx := context.Background()

	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			for _, r := range recs {
				require.NoError(t, s.Append(ctx, r))
			}

			all, err := s.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "a", all[0].ID)
			assert.Equal(t, []string{"sheet.xlsx"}, all[0].Outputs)
			assert.True(t, all[2].Failed())

			cli, err := s.Query(ctx, Query{Source: "cli"})
			require.NoError(t, err)
			assert.Len(t, cli, 2)

			window, err := s.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
			require.NoError(t, err)
			require.Len(t, window, 1)
			assert.Equal(t, "b", window[0].ID)

			last, err := s.Query(ctx, Query{Limit: 2})
			require.NoError(t, err)
			require.Len(t, last, 2)
			assert.Equal(t, "b", last[0].ID)

			got, err := Get(ctx, s, "c")
			require.NoError(t, err)
			assert.Equal(t, "cli", got.Source)
			_, err = Get(ctx, s, "zzz")
			assert.True(t, errors.Is(err, ErrRunNotFound))
		})
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "runs.jsonl")
	store, err := NewRotatingJSONLStore(path, 1, 5, 0)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	notes := make([]string, 0, 64)
	for i := 0; i < 64; i++ {
		notes = append(notes, "sheet-with-a-rather-long-output-name.xlsx")
	}
	rec := RunRecord{ID: "r", Timestamp: time.Now(), Source: "cli", Outputs: notes}
	for i := 0; i < 600; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, err := store.files()
	require.NoError(t, err)
	assert.Greater(t, len(files), 1, "expected rotated backups")

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, 600)
}

func TestOpen(t *testing.T) {
	s, err := Open(Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.IsType(t, NopStore{}, s)

	_, err = Open(Config{Backend: "mongo"})
	assert.Error(t, err)

	cfg := Config{Backend: BackendSQLite}
	cfg.SetDefaults()
	assert.Equal(t, "brunch-runs.db", cfg.Path)

	cfg = Config{Backend: BackendRotating}
	cfg.SetDefaults()
	assert.Equal(t, 10, cfg.MaxSizeMB)
	assert.Equal(t, "brunch-runs.jsonl", cfg.Path)
}

func TestQueryContextCanceled(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, s.Append(ctx, RunRecord{ID: "x"}))
}
