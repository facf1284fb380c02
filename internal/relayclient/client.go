package relayclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"ai-image-enhancer/internal/models"
)

// DefaultTimeout leaves room for the relay's own 300s ceiling.
const DefaultTimeout = 310 * time.Second

type Client struct {
	relayURL   string
	httpClient *http.Client
}

// Request is one enhancement upload.
type Request struct {
	Filename string
	MimeType string
	Data     []byte
	APIKey   string
	Model    string
	Level    int
}

// TransportError means no well-formed relay answer was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("relay returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("relay unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FailureError is a {success:false} answer from the relay.
type FailureError struct {
	StatusCode int
	Message    string
	Details    json.RawMessage
}

func (e *FailureError) Error() string {
	return e.Message
}

func NewClient(relayURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{relayURL: relayURL, httpClient: httpClient}
}

// Enhance uploads req and returns the relay's success payload. Errors are
// *TransportError or *FailureError.
func (c *Client) Enhance(ctx context.Context, req Request) (*models.EnhanceResponse, error) {
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.relayURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	var result struct {
		models.EnhanceResponse
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("response is not JSON: %w", err)}
	}

	if !result.Success {
		message := result.Message
		if message == "" {
			message = fmt.Sprintf("Enhancement failed with status %d", resp.StatusCode)
		}
		return nil, &FailureError{StatusCode: resp.StatusCode, Message: message, Details: result.Details}
	}
	if result.Enhanced == "" {
		return nil, &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("success response without enhanced image")}
	}
	return &result.EnhanceResponse, nil
}

func encodeForm(req Request) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, req.Filename))
	if req.MimeType != "" {
		h.Set("Content-Type", req.MimeType)
	}
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.Data); err != nil {
		return nil, "", err
	}

	fields := []struct{ name, value string }{
		{"api_key", req.APIKey},
		{"model", req.Model},
		{"creativity", strconv.Itoa(req.Level)},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
