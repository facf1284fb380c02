package gemini

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"ai-image-enhancer/internal/logging"

	"github.com/rs/zerolog/log"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

type InlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Content      CandidateContent `json:"content"`
	FinishReason string           `json:"finishReason,omitempty"`
}

type CandidateContent struct {
	Role  string          `json:"role,omitempty"`
	Parts []CandidatePart `json:"parts"`
}

type CandidatePart struct {
	Text       string `json:"text,omitempty"`
	InlineData *Blob  `json:"inlineData,omitempty"`
}

type Blob struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data"`
}

// Enhancement is the image extracted from a successful generateContent call.
type Enhancement struct {
	// ImageBase64 is the base64 payload of the first inline image part.
	ImageBase64 string
	MimeType    string
}

// NewClient builds a client whose transport always verifies certificates.
// caFile optionally adds PEM roots on top of the system pool.
func NewClient(baseURL string, timeout time.Duration, caFile string) (*Client, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if caFile != "" {
		pool, err := x509.SystemCertPool()
		if err != nil || pool == nil {
			pool = x509.NewCertPool()
		}
		pem, err := os.ReadFile(caFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in CA file %s", caFile)
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	transport.DialContext = (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 120 * time.Second,
	}).DialContext

	return NewClientWithHTTP(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}), nil
}

// NewClientWithHTTP uses httpClient as-is. Tests point it at httptest servers.
func NewClientWithHTTP(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BuildRequest assembles the single-turn prompt + inline image request.
func BuildRequest(prompt, mimeType, imageBase64 string) GenerateContentRequest {
	return GenerateContentRequest{
		Contents: []Content{{
			Role: "user",
			Parts: []Part{
				{Text: prompt},
				{InlineData: &InlineData{MimeType: mimeType, Data: imageBase64}},
			},
		}},
	}
}

// EnhanceImage submits prompt and image to model and returns the first
// inline image of the first candidate. Errors are *UpstreamError,
// *PayloadError or *NoImageError.
func (c *Client) EnhanceImage(ctx context.Context, apiKey, model, prompt, mimeType, imageBase64 string) (*Enhancement, error) {
	body, err := c.generateContent(ctx, apiKey, model, BuildRequest(prompt, mimeType, imageBase64))
	if err != nil {
		return nil, err
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &PayloadError{Body: string(body), Err: err}
	}

	// Well-formed JSON of another shape (an array, a string) has no image.
	var result GenerateContentResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &NoImageError{Body: raw}
	}

	enhancement, ok := FirstInlineImage(&result)
	if !ok {
		return nil, &NoImageError{Body: raw}
	}
	return enhancement, nil
}

// FirstInlineImage scans the first candidate's parts in order.
func FirstInlineImage(resp *GenerateContentResponse) (*Enhancement, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, false
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && part.InlineData.Data != "" {
			return &Enhancement{
				ImageBase64: part.InlineData.Data,
				MimeType:    part.InlineData.MimeType,
			}, true
		}
	}
	return nil, false
}

func (c *Client) generateContent(ctx context.Context, apiKey, model string, reqBody GenerateContentRequest) ([]byte, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := c.endpoint(model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?key="+url.QueryEscape(apiKey), bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			urlErr.URL = endpoint + "?key=" + logging.RedactKey(apiKey)
		}
		log.Warn().Err(err).Str("model", model).Dur("elapsed", time.Since(start)).Msg("gemini: transport error")
		return nil, &UpstreamError{TransportErr: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, TransportErr: fmt.Sprintf("failed to read response body: %v", err)}
	}

	log.Debug().
		Str("model", model).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("gemini: generateContent returned")

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// endpoint accepts both "models/<id>" (as listed by the API) and a bare id.
func (c *Client) endpoint(model string) string {
	model = strings.TrimPrefix(strings.TrimSpace(model), "/")
	if !strings.HasPrefix(model, "models/") && !strings.HasPrefix(model, "tunedModels/") {
		model = "models/" + model
	}
	return c.baseURL + "/" + model + ":generateContent"
}
