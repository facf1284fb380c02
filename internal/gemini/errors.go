package gemini

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// UpstreamError is a transport failure (StatusCode 0) or a non-200 reply.
type UpstreamError struct {
	StatusCode   int
	Body         string
	TransportErr string
}

func (e *UpstreamError) Error() string {
	if e.TransportErr != "" {
		return fmt.Sprintf("gemini transport error: %s", e.TransportErr)
	}
	return fmt.Sprintf("gemini returned status %d", e.StatusCode)
}

// IsTransport reports whether no HTTP status was received.
func (e *UpstreamError) IsTransport() bool {
	return e.StatusCode == 0
}

// HTTPStatus is the status the relay should answer with.
func (e *UpstreamError) HTTPStatus() int {
	if e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// PayloadError means the upstream body was not valid JSON.
type PayloadError struct {
	Body string
	Err  error
}

func (e *PayloadError) Error() string {
	return fmt.Sprintf("invalid upstream payload: %v", e.Err)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

// NoImageError means the body parsed but carried no inline image.
type NoImageError struct {
	Body json.RawMessage
}

func (e *NoImageError) Error() string {
	return "no enhanced image produced"
}
