package history_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"ai-image-enhancer/internal/blobstore"
	"ai-image-enhancer/internal/datauri"
	"ai-image-enhancer/internal/history"
	"ai-image-enhancer/internal/logging"
	"ai-image-enhancer/internal/storage"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngURI(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return datauri.Encode("image/png", buf.Bytes())
}

func record(t *testing.T, level int) history.Record {
	return history.Record{
		Original: pngURI(t, 40, 20),
		Enhanced: pngURI(t, 40, 20),
		Level:    level,
	}
}

// fixedClock returns the same instant on every call.
func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// flakyKV fails the next failSets Set calls with ErrQuotaExceeded.
type flakyKV struct {
	*storage.MemoryStore
	mu       sync.Mutex
	failSets int
	sets     int
}

func (f *flakyKV) Set(key, value string) error {
	f.mu.Lock()
	f.sets++
	fail := f.failSets > 0
	if fail {
		f.failSets--
	}
	f.mu.Unlock()
	if fail {
		return storage.ErrQuotaExceeded
	}
	return f.MemoryStore.Set(key, value)
}

func TestAppend_MostRecentFirstWithIncreasingIDs(t *testing.T) {
	store := history.NewStore(storage.NewMemoryStore(0), history.WithClock(fixedClock(time.UnixMilli(1_700_000_000_000))))
	ctx := context.Background()

	var ids []int64
	for level := 1; level <= 3; level++ {
		entry, err := store.Append(ctx, record(t, level))
		require.NoError(t, err)
		ids = append(ids, entry.ID)
	}

	assert.Equal(t, []int64{1_700_000_000_000, 1_700_000_000_001, 1_700_000_000_002}, ids)

	entries := store.List()
	require.Len(t, entries, 3)
	assert.Equal(t, 3, entries[0].Level)
	assert.Equal(t, 1, entries[2].Level)
}

func TestAppend_CapsAtCapacity(t *testing.T) {
	store := history.NewStore(storage.NewMemoryStore(0))
	ctx := context.Background()
	rec := record(t, 2)

	var first history.Entry
	for i := 0; i < 35; i++ {
		entry, err := store.Append(ctx, rec)
		require.NoError(t, err)
		if i == 0 {
			first = entry
		}
	}

	assert.Equal(t, history.DefaultCapacity, store.Len())
	_, err := store.Get(first.ID)
	assert.ErrorIs(t, err, history.ErrNotFound)
}

func TestAppend_Thumbnails(t *testing.T) {
	store := history.NewStore(storage.NewMemoryStore(0))

	entry, err := store.Append(context.Background(), history.Record{
		Original: pngURI(t, 400, 300),
		Enhanced: "data:image/png;base64,bm90IGFuIGltYWdl",
		Level:    3,
	})
	require.NoError(t, err)

	mimeType, data, err := datauri.Decode(entry.OriginalThumbnail)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)
	cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 200, cfg.Width)
	assert.Equal(t, 150, cfg.Height)

	// Undecodable images still produce an entry.
	assert.Empty(t, entry.EnhancedThumbnail)
	assert.Equal(t, "data:image/png;base64,bm90IGFuIGltYWdl", entry.EnhancedFull)
}

func TestAppend_PersistsAndLoads(t *testing.T) {
	kv := storage.NewMemoryStore(0)
	store := history.NewStore(kv)
	entry, err := store.Append(context.Background(), record(t, 4))
	require.NoError(t, err)

	reloaded := history.NewStore(kv)
	require.NoError(t, reloaded.Load())
	got, err := reloaded.Get(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Level)
	assert.Equal(t, entry.OriginalThumbnail, got.OriginalThumbnail)

	// New IDs stay above the loaded ones even if the clock went backwards.
	reloaded2 := history.NewStore(kv, history.WithClock(fixedClock(time.UnixMilli(1))))
	require.NoError(t, reloaded2.Load())
	next, err := reloaded2.Append(context.Background(), record(t, 1))
	require.NoError(t, err)
	assert.Greater(t, next.ID, entry.ID)
}

func TestLoad_CorruptValueIsEmptyHistory(t *testing.T) {
	kv := storage.NewMemoryStore(0)
	require.NoError(t, kv.Set(storage.KeyHistory, "{not json"))

	store := history.NewStore(kv)
	require.NoError(t, store.Load())
	assert.Equal(t, 0, store.Len())
}

func TestAppend_EvictsOldestAndRetriesOnce(t *testing.T) {
	kv := &flakyKV{MemoryStore: storage.NewMemoryStore(0)}
	store := history.NewStore(kv)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Append(ctx, record(t, i+1))
		require.NoError(t, err)
	}

	kv.failSets = 1
	entry, err := store.Append(ctx, record(t, 5))
	require.NoError(t, err)

	entries := store.List()
	require.Len(t, entries, 3)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, 2, entries[2].Level)

	reloaded := history.NewStore(kv.MemoryStore)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, 3, reloaded.Len())
}

// captureLog routes the global logger into a buffer the way the CLI sets it up.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevLogger, prevDefault, prevLevel := log.Logger, zerolog.DefaultContextLogger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.DefaultContextLogger = prevDefault
		zerolog.SetGlobalLevel(prevLevel)
	})

	logging.Init("debug", false)
	var buf bytes.Buffer
	log.Logger = zerolog.New(&buf)
	return &buf
}

func TestAppend_EvictionIsLoggedWithoutRequestLogger(t *testing.T) {
	buf := captureLog(t)
	kv := &flakyKV{MemoryStore: storage.NewMemoryStore(0)}
	store := history.NewStore(kv)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Append(ctx, record(t, i+1))
		require.NoError(t, err)
	}

	kv.failSets = 1
	_, err := store.Append(ctx, record(t, 4))
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "history write failed, evicting oldest entry")
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestAppend_SecondFailureIsWarning(t *testing.T) {
	kv := &flakyKV{MemoryStore: storage.NewMemoryStore(0)}
	store := history.NewStore(kv)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := store.Append(ctx, record(t, 1))
		require.NoError(t, err)
	}

	kv.failSets = 2
	entry, err := store.Append(ctx, record(t, 3))

	var persistErr *history.PersistenceError
	require.True(t, errors.As(err, &persistErr))
	assert.ErrorIs(t, err, storage.ErrQuotaExceeded)
	assert.NotZero(t, entry.ID)

	entries := store.List()
	require.Len(t, entries, 2)
	assert.Equal(t, entry.ID, entries[0].ID)
}

func TestAppend_QuotaExceededEndToEnd(t *testing.T) {
	rec := record(t, 3)
	probe := storage.NewMemoryStore(0)
	probeStore := history.NewStore(probe)
	_, err := probeStore.Append(context.Background(), rec)
	require.NoError(t, err)
	raw, _, _ := probe.Get(storage.KeyHistory)

	// Room for roughly two entries.
	kv := storage.NewMemoryStore(len(storage.KeyHistory) + 2*len(raw) + 64)
	store := history.NewStore(kv)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := store.Append(ctx, rec)
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, store.Len(), 2)
	assert.GreaterOrEqual(t, store.Len(), 1)
}

func TestBlobStore_FullImagesByReference(t *testing.T) {
	blobs, err := blobstore.NewLocal(t.TempDir())
	require.NoError(t, err)
	store := history.NewStore(storage.NewMemoryStore(0), history.WithBlobStore(blobs), history.WithCapacity(1))
	ctx := context.Background()

	rec := record(t, 3)
	first, err := store.Append(ctx, rec)
	require.NoError(t, err)
	assert.False(t, datauri.IsDataURI(first.EnhancedFull))

	mimeType, data, err := store.Resolve(first.EnhancedFull)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	_, want, _ := datauri.Decode(rec.Enhanced)
	assert.Equal(t, want, data)

	// Evicting the first entry deletes its blobs.
	_, err = store.Append(ctx, rec)
	require.NoError(t, err)
	_, err = blobs.Get(first.EnhancedFull)
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	kv := storage.NewMemoryStore(0)
	store := history.NewStore(kv)
	_, err := store.Append(context.Background(), record(t, 1))
	require.NoError(t, err)

	require.NoError(t, store.Clear(context.Background()))
	assert.Equal(t, 0, store.Len())
	_, ok, _ := kv.Get(storage.KeyHistory)
	assert.False(t, ok)
}
