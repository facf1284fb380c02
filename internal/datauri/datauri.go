// Package datauri encodes and decodes base64 "data:" URIs as used in relay
// responses and history thumbnails.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

var ErrNotDataURI = errors.New("not a base64 data URI")

// Encode returns data:<mimeType>;base64,<data>.
func Encode(mimeType string, data []byte) string {
	return FromBase64(mimeType, base64.StdEncoding.EncodeToString(data))
}

// FromBase64 wraps an already base64-encoded payload.
func FromBase64(mimeType, b64 string) string {
	return "data:" + mimeType + ";base64," + b64
}

// IsDataURI reports whether s looks like a data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// Decode splits a base64 data URI into its MIME type and raw bytes.
func Decode(uri string) (string, []byte, error) {
	if !IsDataURI(uri) {
		return "", nil, ErrNotDataURI
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return "", nil, ErrNotDataURI
	}
	mimeType := strings.TrimSuffix(header, ";base64")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URI payload: %w", err)
	}
	return mimeType, data, nil
}
