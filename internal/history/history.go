// Package history keeps the bounded, most-recent-first list of past
// enhancements and persists it under a single storage key.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-image-enhancer/internal/blobstore"
	"ai-image-enhancer/internal/datauri"
	"ai-image-enhancer/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultCapacity = 30

var ErrNotFound = errors.New("history entry not found")

// Record is a finished enhancement as returned by the relay.
type Record struct {
	Original string
	Enhanced string
	Level    int
}

// Entry is one persisted history item. ID is the creation time in
// milliseconds and is strictly increasing within a store.
type Entry struct {
	ID                int64     `json:"id"`
	OriginalThumbnail string    `json:"originalThumb"`
	EnhancedThumbnail string    `json:"enhancedThumb"`
	OriginalFull      string    `json:"originalFull"`
	EnhancedFull      string    `json:"enhancedFull"`
	Level             int       `json:"creativity"`
	CreatedAt         time.Time `json:"timestamp"`
}

// PersistenceError is a non-fatal warning: the in-memory list was updated
// but could not be written, even after evicting the oldest entry.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("history could not be saved: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

type Store struct {
	mu         sync.Mutex
	kv         storage.KeyValue
	blobs      blobstore.Store
	capacity   int
	thumbWidth int
	now        func() time.Time

	entries []Entry
	lastID  int64
}

type Option func(*Store)

// WithBlobStore moves full-size images out of the persisted list.
func WithBlobStore(blobs blobstore.Store) Option {
	return func(s *Store) { s.blobs = blobs }
}

func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.capacity = n
		}
	}
}

func WithThumbnailWidth(w int) Option {
	return func(s *Store) {
		if w > 0 {
			s.thumbWidth = w
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(kv storage.KeyValue, opts ...Option) *Store {
	s := &Store{
		kv:         kv,
		capacity:   DefaultCapacity,
		thumbWidth: DefaultThumbnailWidth,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory list with the persisted one. A corrupt value
// is logged and treated as an empty history.
func (s *Store) Load() error {
	raw, ok, err := s.kv.Get(storage.KeyHistory)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	var entries []Entry
	if ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &entries); err != nil {
			log.Warn().Err(err).Msg("discarding unreadable history")
			entries = nil
		}
	}
	if len(entries) > s.capacity {
		entries = entries[:s.capacity]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = entries
	s.lastID = 0
	for _, e := range entries {
		if e.ID > s.lastID {
			s.lastID = e.ID
		}
	}
	return nil
}

// Append adds rec at the head of the list. A *PersistenceError return still
// carries a valid entry and means only that the write failed.
func (s *Store) Append(ctx context.Context, rec Record) (Entry, error) {
	logger := zerolog.Ctx(ctx)

	entry := Entry{
		OriginalThumbnail: s.thumbnail(logger, "original", rec.Original),
		EnhancedThumbnail: s.thumbnail(logger, "enhanced", rec.Enhanced),
		OriginalFull:      s.storeFull(logger, rec.Original),
		EnhancedFull:      s.storeFull(logger, rec.Enhanced),
		Level:             rec.Level,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	entry.ID = id
	entry.CreatedAt = now

	s.entries = append([]Entry{entry}, s.entries...)
	if len(s.entries) > s.capacity {
		s.dropBlobs(logger, s.entries[s.capacity:])
		s.entries = s.entries[:s.capacity]
	}

	if err := s.persist(); err != nil {
		logger.Warn().Err(err).Int("entries", len(s.entries)).Msg("history write failed, evicting oldest entry")
		if len(s.entries) > 1 {
			s.dropBlobs(logger, s.entries[len(s.entries)-1:])
			s.entries = s.entries[:len(s.entries)-1]
		}
		if err := s.persist(); err != nil {
			return entry, &PersistenceError{Err: err}
		}
	}
	return entry, nil
}

// List returns a copy of the entries, most recent first.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) Get(id int64) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return Entry{}, ErrNotFound
}

// Clear empties the list and removes the persisted key.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropBlobs(zerolog.Ctx(ctx), s.entries)
	s.entries = nil
	if err := s.kv.Delete(storage.KeyHistory); err != nil {
		return &PersistenceError{Err: err}
	}
	return nil
}

// Resolve returns the bytes and MIME type behind a full-size reference,
// which is either a data URI or a blob store URI.
func (s *Store) Resolve(uri string) (string, []byte, error) {
	if datauri.IsDataURI(uri) {
		return datauri.Decode(uri)
	}
	if s.blobs == nil {
		return "", nil, blobstore.ErrUnknownURI
	}
	data, err := s.blobs.Get(uri)
	if err != nil {
		return "", nil, err
	}
	return mimetype.Detect(data).String(), data, nil
}

func (s *Store) persist() error {
	data, err := json.Marshal(s.entries)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	return s.kv.Set(storage.KeyHistory, string(data))
}

func (s *Store) thumbnail(logger *zerolog.Logger, which, uri string) string {
	thumb, err := Thumbnail(uri, s.thumbWidth)
	if err != nil {
		logger.Warn().Err(err).Str("image", which).Msg("could not build thumbnail")
		return ""
	}
	return thumb
}

func (s *Store) storeFull(logger *zerolog.Logger, uri string) string {
	if s.blobs == nil {
		return uri
	}
	mimeType, data, err := datauri.Decode(uri)
	if err != nil {
		return uri
	}
	ref, err := s.blobs.Put(mimeType, data)
	if err != nil {
		logger.Warn().Err(err).Msg("blob store write failed, keeping inline image")
		return uri
	}
	return ref
}

// dropBlobs deletes the blob references of evicted entries, best effort.
func (s *Store) dropBlobs(logger *zerolog.Logger, evicted []Entry) {
	if s.blobs == nil {
		return
	}
	for _, e := range evicted {
		for _, uri := range []string{e.OriginalFull, e.EnhancedFull} {
			if datauri.IsDataURI(uri) {
				continue
			}
			if err := s.blobs.Delete(uri); err != nil {
				logger.Debug().Err(err).Str("uri", uri).Msg("could not delete evicted blob")
			}
		}
	}
}
