package controller

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"

	"ai-image-enhancer/internal/gemini"
)

var (
	ErrSuperseded         = errors.New("model lookup superseded by a newer one")
	ErrAPIKeyRequired     = errors.New("api key is required to list models")
	ErrNoCompatibleModels = errors.New("no compatible models")
)

var visionName = regexp.MustCompile(`(?i)vision`)

type ModelLister interface {
	ListModels(ctx context.Context, apiKey string) ([]gemini.ModelInfo, error)
}

// ModelLookup lists the models usable for enhancement. Starting a lookup
// cancels the one in flight, so only the latest caller gets a result.
type ModelLookup struct {
	lister ModelLister

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewModelLookup(lister ModelLister) *ModelLookup {
	return &ModelLookup{lister: lister}
}

func (l *ModelLookup) Fetch(ctx context.Context, apiKey string) ([]gemini.ModelInfo, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrAPIKeyRequired
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.seq++
	seq := l.seq
	l.cancel = cancel
	l.mu.Unlock()

	listed, err := l.lister.ListModels(ctx, apiKey)

	l.mu.Lock()
	superseded := seq != l.seq
	if !superseded {
		l.cancel = nil
	}
	l.mu.Unlock()

	if superseded {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	compatible := filterCompatible(listed)
	if len(compatible) == 0 {
		return nil, ErrNoCompatibleModels
	}
	return compatible, nil
}

// filterCompatible keeps generateContent models and, when any exist, only
// those with "vision" in their name.
func filterCompatible(listed []gemini.ModelInfo) []gemini.ModelInfo {
	var compatible, vision []gemini.ModelInfo
	for _, m := range listed {
		if !m.SupportsGenerateContent() {
			continue
		}
		compatible = append(compatible, m)
		if visionName.MatchString(m.Name) {
			vision = append(vision, m)
		}
	}
	if len(vision) > 0 {
		return vision
	}
	return compatible
}
