package gemini

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"google.golang.org/genai"
)

// ModelInfo is the subset of a listed model the settings surface needs.
type ModelInfo struct {
	Name             string
	DisplayName      string
	SupportedActions []string
}

// SupportsGenerateContent reports whether the model can serve the relay.
func (m ModelInfo) SupportsGenerateContent() bool {
	return slices.Contains(m.SupportedActions, "generateContent")
}

// Catalog lists models available to an API key through the genai SDK.
type Catalog struct {
	baseURL    string
	httpClient *http.Client
}

// NewCatalog returns a catalog. baseURL overrides the SDK endpoint when set
// (the SDK appends the API version itself). httpClient may be nil.
func NewCatalog(baseURL string, httpClient *http.Client) *Catalog {
	return &Catalog{baseURL: baseURL, httpClient: httpClient}
}

// ListModels returns every model visible to apiKey.
func (c *Catalog) ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error) {
	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimSuffix(c.baseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	var models []ModelInfo
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list models: %w", err)
		}
		models = append(models, ModelInfo{
			Name:             m.Name,
			DisplayName:      m.DisplayName,
			SupportedActions: m.SupportedActions,
		})
	}
	return models, nil
}
