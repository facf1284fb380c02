// Package controller owns the client-side enhancement pipeline: the held
// file, the single in-flight relay request, history writes and settings.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"ai-image-enhancer/internal/gemini"
	"ai-image-enhancer/internal/history"
	"ai-image-enhancer/internal/models"
	"ai-image-enhancer/internal/prompts"
	"ai-image-enhancer/internal/relayclient"
	"ai-image-enhancer/internal/settings"

	"github.com/rs/zerolog/log"
)

var (
	ErrBusy             = errors.New("an enhancement is already in progress")
	ErrNoFile           = errors.New("no image selected")
	ErrNotImage         = errors.New("file is not an image")
	ErrSettingsRequired = errors.New("api key and model must be configured")
	ErrInvalidLevel     = errors.New("level must be between 1 and 5")
	ErrHistoryEmpty     = errors.New("history is empty")
	ErrNothingToSave    = errors.New("no enhanced image to download")
)

// Notification texts.
const (
	msgConfigureSettings = "Please configure your API key and model in settings."
	msgEnhanced          = "Image enhanced successfully!"
	msgEnhanceFailed     = "Enhancement failed. Please try again."
	msgNetworkFailed     = "Network connection failed. Please check your internet connection."
	msgUnexpected        = "An unexpected error occurred. Please try again."
	msgHistoryEmpty      = "History is already empty."
	msgHistoryCleared    = "History cleared successfully."
	msgHistoryNotCleared = "Could not clear history."
	msgHistoryNotSaved   = "Enhanced image shown, but it could not be saved to history. Storage may be full."
	msgEnterAPIKey       = "Please enter your API key."
	msgSelectModel       = "Please select a model."
	msgSettingsSaved     = "Settings saved successfully!"
	msgSettingsNotSaved  = "Could not save settings. Storage may be full."
	msgNothingToSave     = "No enhanced image to download."
	msgDownloadFailed    = "Could not download image."
	msgModelKeyRequired  = "Please enter your API key before loading models."
	msgLoadingModels     = "Loading available models..."
	msgNoModels          = "No compatible models found for your API key. Please check your key permissions."
	msgInvalidKey        = "Invalid API key. Please check your Gemini API key."
	msgKeyDenied         = "API key access denied. Please check your key permissions."
)

// File is an image picked by the user.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

type Enhancer interface {
	Enhance(ctx context.Context, req relayclient.Request) (*models.EnhanceResponse, error)
}

type SettingsStore interface {
	Load() (settings.Settings, bool, error)
	Save(settings.Settings) error
}

type HistoryStore interface {
	Append(ctx context.Context, rec history.Record) (history.Entry, error)
	Get(id int64) (history.Entry, error)
	Len() int
	Clear(ctx context.Context) error
	Resolve(uri string) (string, []byte, error)
}

// Deps are the controller's collaborators. Models may be nil.
type Deps struct {
	View     View
	Relay    Enhancer
	Settings SettingsStore
	History  HistoryStore
	Models   *ModelLookup
}

type comparison struct {
	original string
	enhanced string
	level    int
}

type Controller struct {
	view     View
	relay    Enhancer
	settings SettingsStore
	history  HistoryStore
	models   *ModelLookup
	now      func() time.Time

	mu      sync.Mutex
	state   State
	file    *File
	level   int
	current *comparison
}

func New(d Deps) *Controller {
	return &Controller{
		view:     d.View,
		relay:    d.Relay,
		settings: d.Settings,
		history:  d.History,
		models:   d.Models,
		now:      time.Now,
		level:    prompts.DefaultLevel,
	}
}

// Start applies the saved default level.
func (c *Controller) Start() error {
	s, _, err := c.settings.Load()
	if err != nil {
		log.Warn().Err(err).Msg("could not load settings")
		return err
	}
	c.mu.Lock()
	c.level = s.DefaultLevel
	c.mu.Unlock()
	return nil
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Controller) SetLevel(level int) error {
	if !prompts.Known(level) {
		return ErrInvalidLevel
	}
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
	return nil
}

// SelectFile holds f for the next enhancement. Non-image files are ignored.
// While Processing the file is replaced but the state is left alone.
func (c *Controller) SelectFile(f File) error {
	if !strings.HasPrefix(f.MimeType, "image/") {
		return ErrNotImage
	}

	c.mu.Lock()
	held := f
	c.file = &held
	if c.state != Processing {
		c.state = Ready
	}
	c.mu.Unlock()

	c.view.ShowPreview(held)
	return nil
}

// Enhance sends the held file to the relay. It makes at most one network
// call and always leaves the controller in Ready or Error.
func (c *Controller) Enhance(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.state == Processing:
		c.mu.Unlock()
		return ErrBusy
	case c.file == nil:
		c.mu.Unlock()
		return ErrNoFile
	}

	s, complete, err := c.settings.Load()
	if err != nil || !complete {
		c.mu.Unlock()
		if err != nil {
			log.Warn().Err(err).Msg("could not load settings")
		}
		c.view.Notify(NoticeError, msgConfigureSettings)
		c.view.OpenSettings()
		return ErrSettingsRequired
	}

	file := *c.file
	level := c.level
	c.state = Processing
	c.mu.Unlock()

	c.view.SetBusy(true)
	defer c.view.SetBusy(false)

	result, err := c.relay.Enhance(ctx, relayclient.Request{
		Filename: file.Name,
		MimeType: file.MimeType,
		Data:     file.Data,
		APIKey:   s.APIKey,
		Model:    s.Model,
		Level:    level,
	})
	if err != nil {
		c.view.Notify(NoticeError, failureMessage(err))
		c.setState(Error)
		return err
	}

	c.mu.Lock()
	c.current = &comparison{original: result.Original, enhanced: result.Enhanced, level: result.Creativity}
	c.mu.Unlock()
	c.view.ShowComparison(result.Original, result.Enhanced, result.Creativity)

	_, histErr := c.history.Append(ctx, history.Record{
		Original: result.Original,
		Enhanced: result.Enhanced,
		Level:    result.Creativity,
	})
	c.view.Notify(NoticeSuccess, msgEnhanced)
	if histErr != nil {
		log.Warn().Err(histErr).Msg("history not persisted")
		c.view.Notify(NoticeError, msgHistoryNotSaved)
	}

	c.setState(Ready)
	return nil
}

// failureMessage maps a relay error to its notification and logs the details.
func failureMessage(err error) string {
	var failure *relayclient.FailureError
	var transport *relayclient.TransportError

	switch {
	case errors.As(err, &failure):
		event := log.Error().Int("status", failure.StatusCode).Str("message", failure.Message)
		if len(failure.Details) > 0 {
			event = event.RawJSON("details", failure.Details)
		}
		event.Msg("relay reported failure")
		if failure.Message == "" {
			return msgEnhanceFailed
		}
		return failure.Message
	case errors.As(err, &transport):
		log.Error().Err(transport.Err).Int("status", transport.StatusCode).Msg("relay request failed")
		if transport.StatusCode != 0 {
			return fmt.Sprintf("Server error: HTTP %d", transport.StatusCode)
		}
		return msgNetworkFailed
	default:
		log.Error().Err(err).Msg("enhancement failed")
		return msgUnexpected
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// ShowHistoryEntry redisplays a past result.
func (c *Controller) ShowHistoryEntry(id int64) error {
	entry, err := c.history.Get(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.current = &comparison{original: entry.OriginalFull, enhanced: entry.EnhancedFull, level: entry.Level}
	c.mu.Unlock()
	c.view.ShowComparison(entry.OriginalFull, entry.EnhancedFull, entry.Level)
	return nil
}

func (c *Controller) ClearHistory(ctx context.Context) error {
	if c.history.Len() == 0 {
		c.view.Notify(NoticeError, msgHistoryEmpty)
		return ErrHistoryEmpty
	}
	if err := c.history.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("could not clear history")
		c.view.Notify(NoticeError, msgHistoryNotCleared)
		return err
	}
	c.view.Notify(NoticeSuccess, msgHistoryCleared)
	return nil
}

// SaveSettings validates and persists s, notifying the outcome.
func (c *Controller) SaveSettings(s settings.Settings) error {
	err := c.settings.Save(s)
	switch {
	case errors.Is(err, settings.ErrAPIKeyRequired):
		c.view.Notify(NoticeError, msgEnterAPIKey)
	case errors.Is(err, settings.ErrModelRequired):
		c.view.Notify(NoticeError, msgSelectModel)
	case err != nil:
		log.Error().Err(err).Msg("could not save settings")
		c.view.Notify(NoticeError, msgSettingsNotSaved)
	default:
		c.view.Notify(NoticeSuccess, msgSettingsSaved)
		if prompts.Known(s.DefaultLevel) {
			_ = c.SetLevel(s.DefaultLevel)
		}
	}
	return err
}

// Download writes the displayed enhanced image into dir and returns its path.
func (c *Controller) Download(dir string) (string, error) {
	c.mu.Lock()
	current := c.current
	c.mu.Unlock()
	if current == nil || current.enhanced == "" {
		c.view.Notify(NoticeError, msgNothingToSave)
		return "", ErrNothingToSave
	}

	_, data, err := c.history.Resolve(current.enhanced)
	if err == nil {
		path := filepath.Join(dir, fmt.Sprintf("enhanced-image-%d.png", c.now().UnixMilli()))
		if err = os.WriteFile(path, data, 0o644); err == nil {
			c.view.Notify(NoticeSuccess, fmt.Sprintf("Image saved to %s.", path))
			return path, nil
		}
	}
	log.Error().Err(err).Msg("download failed")
	c.view.Notify(NoticeError, msgDownloadFailed)
	return "", err
}

// LookupModels lists the models usable with apiKey. Superseded lookups
// return ErrSuperseded without notifying.
func (c *Controller) LookupModels(ctx context.Context, apiKey string) ([]gemini.ModelInfo, error) {
	if c.models == nil {
		return nil, errors.New("model lookup is not configured")
	}
	if strings.TrimSpace(apiKey) == "" {
		c.view.Notify(NoticeError, msgModelKeyRequired)
		return nil, ErrAPIKeyRequired
	}

	c.view.Notify(NoticeSuccess, msgLoadingModels)
	list, err := c.models.Fetch(ctx, apiKey)
	switch {
	case errors.Is(err, ErrSuperseded):
		return nil, err
	case errors.Is(err, ErrNoCompatibleModels):
		c.view.Notify(NoticeError, msgNoModels)
		return nil, err
	case err != nil:
		log.Error().Err(err).Msg("model lookup failed")
		c.view.Notify(NoticeError, modelLookupMessage(err))
		return nil, err
	}

	c.view.Notify(NoticeSuccess, fmt.Sprintf("Successfully loaded %d models", len(list)))
	return list, nil
}

func modelLookupMessage(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "API key"):
		return msgInvalidKey
	case strings.Contains(msg, "403"):
		return msgKeyDenied
	default:
		return fmt.Sprintf("Failed to load models: %v", err)
	}
}
