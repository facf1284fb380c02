package settings_test

import (
	"errors"
	"testing"

	"ai-image-enhancer/internal/settings"
	"ai-image-enhancer/internal/storage"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Empty(t *testing.T) {
	store := settings.NewStore(storage.NewMemoryStore(0), nil)

	s, complete, err := store.Load()
	require.NoError(t, err)
	assert.False(t, complete)
	assert.Equal(t, 3, s.DefaultLevel)
}

func TestSaveLoad_KeyValueOnly(t *testing.T) {
	kv := storage.NewMemoryStore(0)
	store := settings.NewStore(kv, nil)

	require.NoError(t, store.Save(settings.Settings{APIKey: " AIzaKey ", Model: "models/gemini-2.5-flash-image", DefaultLevel: 5}))

	s, complete, err := store.Load()
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, "AIzaKey", s.APIKey)
	assert.Equal(t, "models/gemini-2.5-flash-image", s.Model)
	assert.Equal(t, 5, s.DefaultLevel)

	raw, ok, _ := kv.Get(storage.KeyAPIKey)
	assert.True(t, ok)
	assert.Equal(t, "AIzaKey", raw)
}

func TestSaveLoad_Keyring(t *testing.T) {
	kv := storage.NewMemoryStore(0)
	require.NoError(t, kv.Set(storage.KeyAPIKey, "stale-plaintext"))
	ring := keyring.NewArrayKeyring(nil)
	store := settings.NewStore(kv, ring)

	require.NoError(t, store.Save(settings.Settings{APIKey: "AIzaKey", Model: "gemini-2.5-flash-image", DefaultLevel: 2}))

	item, err := ring.Get(storage.KeyAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "AIzaKey", string(item.Data))

	_, ok, _ := kv.Get(storage.KeyAPIKey)
	assert.False(t, ok)

	s, complete, err := store.Load()
	require.NoError(t, err)
	assert.True(t, complete)
	assert.Equal(t, "AIzaKey", s.APIKey)
}

func TestSave_Validation(t *testing.T) {
	store := settings.NewStore(storage.NewMemoryStore(0), nil)

	assert.ErrorIs(t, store.Save(settings.Settings{Model: "m"}), settings.ErrAPIKeyRequired)
	assert.ErrorIs(t, store.Save(settings.Settings{APIKey: "k"}), settings.ErrModelRequired)
	assert.ErrorIs(t, store.Save(settings.Settings{APIKey: "   ", Model: "m"}), settings.ErrAPIKeyRequired)
}

func TestDefaultLevel_OutOfRangeLoadsAsThree(t *testing.T) {
	for _, raw := range []string{"0", "6", "-1", "abc", ""} {
		kv := storage.NewMemoryStore(0)
		require.NoError(t, kv.Set(storage.KeyDefaultLevel, raw))

		s, _, err := settings.NewStore(kv, nil).Load()
		require.NoError(t, err)
		assert.Equal(t, 3, s.DefaultLevel, raw)
	}

	store := settings.NewStore(storage.NewMemoryStore(0), nil)
	require.NoError(t, store.Save(settings.Settings{APIKey: "k", Model: "m", DefaultLevel: 9}))
	s, _, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, s.DefaultLevel)
}

func TestSave_StorageFailure(t *testing.T) {
	store := settings.NewStore(storage.NewMemoryStore(10), nil)

	err := store.Save(settings.Settings{APIKey: "a-long-api-key-value", Model: "m"})
	var persistErr *settings.PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
}
