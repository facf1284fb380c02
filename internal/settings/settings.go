package settings

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"ai-image-enhancer/internal/prompts"
	"ai-image-enhancer/internal/storage"

	"github.com/99designs/keyring"
)

var (
	ErrAPIKeyRequired = errors.New("api key is required")
	ErrModelRequired  = errors.New("model is required")
)

// Settings is the single persisted user configuration.
type Settings struct {
	APIKey       string
	Model        string
	DefaultLevel int
}

// Complete reports whether an enhancement can be attempted with s.
func (s Settings) Complete() bool {
	return s.APIKey != "" && s.Model != ""
}

// PersistenceError wraps a failed read or write of the underlying storage.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("settings %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Store reads and writes Settings. The API key goes to ring when one is
// configured and to kv otherwise.
type Store struct {
	kv   storage.KeyValue
	ring keyring.Keyring
}

func NewStore(kv storage.KeyValue, ring keyring.Keyring) *Store {
	return &Store{kv: kv, ring: ring}
}

// Load returns the stored settings and whether both key and model are present.
func (s *Store) Load() (Settings, bool, error) {
	settings := Settings{DefaultLevel: prompts.DefaultLevel}

	apiKey, err := s.loadAPIKey()
	if err != nil {
		return settings, false, &PersistenceError{Op: "load", Err: err}
	}
	settings.APIKey = apiKey

	model, _, err := s.kv.Get(storage.KeyModel)
	if err != nil {
		return settings, false, &PersistenceError{Op: "load", Err: err}
	}
	settings.Model = model

	raw, ok, err := s.kv.Get(storage.KeyDefaultLevel)
	if err != nil {
		return settings, false, &PersistenceError{Op: "load", Err: err}
	}
	if ok {
		if level, err := strconv.Atoi(raw); err == nil && level >= prompts.MinLevel && level <= prompts.MaxLevel {
			settings.DefaultLevel = level
		}
	}

	return settings, settings.Complete(), nil
}

// Save validates and persists in. Levels outside 1..5 are stored as the default.
func (s *Store) Save(in Settings) error {
	in.APIKey = strings.TrimSpace(in.APIKey)
	in.Model = strings.TrimSpace(in.Model)
	if in.APIKey == "" {
		return ErrAPIKeyRequired
	}
	if in.Model == "" {
		return ErrModelRequired
	}
	if in.DefaultLevel < prompts.MinLevel || in.DefaultLevel > prompts.MaxLevel {
		in.DefaultLevel = prompts.DefaultLevel
	}

	if err := s.saveAPIKey(in.APIKey); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	if err := s.kv.Set(storage.KeyModel, in.Model); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	if err := s.kv.Set(storage.KeyDefaultLevel, strconv.Itoa(in.DefaultLevel)); err != nil {
		return &PersistenceError{Op: "save", Err: err}
	}
	return nil
}

func (s *Store) loadAPIKey() (string, error) {
	if s.ring == nil {
		key, _, err := s.kv.Get(storage.KeyAPIKey)
		return key, err
	}
	item, err := s.ring.Get(storage.KeyAPIKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(item.Data), nil
}

func (s *Store) saveAPIKey(apiKey string) error {
	if s.ring == nil {
		return s.kv.Set(storage.KeyAPIKey, apiKey)
	}
	if err := s.ring.Set(keyring.Item{
		Key:         storage.KeyAPIKey,
		Data:        []byte(apiKey),
		Label:       "Gemini API key",
		Description: "API key used by the AI image enhancer",
	}); err != nil {
		return err
	}
	// Drop any plaintext copy left from before a keyring was configured.
	return s.kv.Delete(storage.KeyAPIKey)
}
