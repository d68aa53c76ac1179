// ABOUTME: Tests for the file and SQLite store backends
// ABOUTME: Covers initialization, full-rewrite semantics, and Open driver selection

package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns a fresh instance of every Store backend under test.
func backends(t *testing.T) map[string]Store {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "sessions.json"))
	require.NoError(t, err)

	sqliteStore, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)

	return map[string]Store{
		"file":   fileStore,
		"sqlite": sqliteStore,
	}
}

func TestStore_EmptyOnInit(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			records, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.Empty(t, records)
			assert.NotNil(t, records)
		})
	}
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			ctx := context.Background()

			in := []SessionRecord{
				{ID: "office", Description: "Front office line", Ready: true},
				{ID: "support", Description: "Support line"},
			}
			require.NoError(t, s.Save(ctx, in))

			out, err := s.Load(ctx)
			require.NoError(t, err)
			assert.ElementsMatch(t, in, out)
		})
	}
}

func TestStore_SaveReplacesWholeCatalog(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, []SessionRecord{
				{ID: "a", Description: "first"},
				{ID: "b", Description: "second"},
			}))
			require.NoError(t, s.Save(ctx, []SessionRecord{
				{ID: "b", Description: "second", Ready: true},
			}))

			out, err := s.Load(ctx)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.Equal(t, "b", out[0].ID)
			assert.True(t, out[0].Ready)
		})
	}
}

func TestStore_SaveNilWritesEmptyCatalog(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, []SessionRecord{{ID: "a"}}))
			require.NoError(t, s.Save(ctx, nil))

			out, err := s.Load(ctx)
			require.NoError(t, err)
			assert.Empty(t, out)
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	ctx := context.Background()

	s1, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s1.Save(ctx, []SessionRecord{{ID: "office", Description: "d", Ready: true}}))
	require.NoError(t, s1.Close())

	s2, err := NewFileStore(path)
	require.NoError(t, err)
	defer s2.Close()

	out, err := s2.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "office", out[0].ID)
	assert.True(t, out[0].Ready)
}

func TestFileStore_RejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := NewFileStore(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Load(context.Background())
	require.Error(t, err)
}

func TestOpen_DriverSelection(t *testing.T) {
	dir := t.TempDir()

	fs, err := Open("file", filepath.Join(dir, "s.json"))
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, fs)
	fs.Close()

	ss, err := Open("sqlite", filepath.Join(dir, "s.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, ss)
	ss.Close()

	_, err = Open("postgres", "dsn")
	require.Error(t, err)
}
