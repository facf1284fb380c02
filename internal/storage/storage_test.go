package storage_test

import (
	"path/filepath"
	"strings"
	"testing"

	"ai-image-enhancer/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T, quota int) map[string]storage.KeyValue {
	t.Helper()
	sqliteStore, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "kv.db"), quota)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]storage.KeyValue{
		"memory": storage.NewMemoryStore(quota),
		"sqlite": sqliteStore,
	}
}

func TestKeyValue_SetGetDelete(t *testing.T) {
	for name, kv := range stores(t, 0) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := kv.Get(storage.KeyModel)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, kv.Set(storage.KeyModel, "models/gemini-2.5-flash-image"))
			require.NoError(t, kv.Set(storage.KeyModel, "models/gemini-2.0-flash"))

			v, ok, err := kv.Get(storage.KeyModel)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "models/gemini-2.0-flash", v)

			require.NoError(t, kv.Delete(storage.KeyModel))
			_, ok, err = kv.Get(storage.KeyModel)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestKeyValue_Quota(t *testing.T) {
	for name, kv := range stores(t, 100) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, kv.Set("a", strings.Repeat("x", 60)))

			err := kv.Set("b", strings.Repeat("y", 60))
			assert.ErrorIs(t, err, storage.ErrQuotaExceeded)

			// Overwriting a key only counts its new size.
			require.NoError(t, kv.Set("a", strings.Repeat("z", 90)))

			_, ok, err := kv.Get("b")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLiteStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	first, err := storage.OpenSQLite(path, 0)
	require.NoError(t, err)
	require.NoError(t, first.Set(storage.KeyDefaultLevel, "4"))
	require.NoError(t, first.Close())

	second, err := storage.OpenSQLite(path, 0)
	require.NoError(t, err)
	defer second.Close()

	v, ok, err := second.Get(storage.KeyDefaultLevel)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "4", v)
}
