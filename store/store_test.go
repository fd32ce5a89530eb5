package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("defaults_to_memory", func(t *testing.T) {
		s, err := Open("", "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("dispatches_by_driver", func(t *testing.T) {
		s, err := Open(DriverMemory, "")
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)

		s, err = Open(DriverFile, t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &FileStore{}, s)
		require.NoError(t, s.Close())

		s, err = Open(DriverSQLite, filepath.Join(t.TempDir(), "kv.db"))
		require.NoError(t, err)
		assert.IsType(t, &SQLiteStore{}, s)
		require.NoError(t, s.Close())
	})

	t.Run("rejects_unknown_driver", func(t *testing.T) {
		_, err := Open("redis", "")
		assert.ErrorIs(t, err, ErrUnknownDriver)
	})
}

// exerciseStore runs the contract every driver must satisfy.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, s.Put(ctx, "greeting", []byte("hello")))
	got, err := s.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	require.NoError(t, s.Put(ctx, "greeting", []byte("replaced")))
	got, err = s.Get(ctx, "greeting")
	require.NoError(t, err)
	assert.Equal(t, []byte("replaced"), got)

	require.NoError(t, s.Delete(ctx, "greeting"))
	_, err = s.Get(ctx, "greeting")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	// Deleting an absent key is a no-op.
	assert.NoError(t, s.Delete(ctx, "missing"))

	// Empty keys are rejected everywhere.
	_, err = s.Get(ctx, "")
	assert.ErrorIs(t, err, ErrKeyEmpty)
	assert.ErrorIs(t, s.Put(ctx, "", nil), ErrKeyEmpty)
	assert.ErrorIs(t, s.Delete(ctx, ""), ErrKeyEmpty)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)

	t.Run("copies_values_both_ways", func(t *testing.T) {
		ctx := context.Background()
		in := []byte("original")
		require.NoError(t, s.Put(ctx, "k", in))
		in[0] = 'X'

		out, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), out)

		out[0] = 'Y'
		again, err := s.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("original"), again)
	})

	t.Run("rejects_use_after_close", func(t *testing.T) {
		closed := NewMemoryStore()
		require.NoError(t, closed.Close())
		_, err := closed.Get(context.Background(), "k")
		assert.ErrorIs(t, err, ErrStoreClosed)
		assert.ErrorIs(t, closed.Put(context.Background(), "k", nil), ErrStoreClosed)
	})
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	require.NoError(t, err)
	exerciseStore(t, s)

	t.Run("sanitizes_key_into_file_name", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "beatlab:patterns", []byte("[]")))

		path := s.Path("beatlab:patterns")
		assert.Equal(t, "beatlab_patterns.json", filepath.Base(path))
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, []byte("[]"), data)
	})

	t.Run("survives_reopen", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "persisted", []byte("v1")))

		reopened, err := NewFileStore(dir)
		require.NoError(t, err)
		got, err := reopened.Get(ctx, "persisted")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})

	t.Run("rejects_empty_directory", func(t *testing.T) {
		_, err := NewFileStore("")
		assert.Error(t, err)
	})
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, s)

	t.Run("survives_reopen", func(t *testing.T) {
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "persisted", []byte("v1")))
		require.NoError(t, s.Close())

		reopened, err := OpenSQLite(path)
		require.NoError(t, err)
		defer reopened.Close()
		got, err := reopened.Get(ctx, "persisted")
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)
	})
}
