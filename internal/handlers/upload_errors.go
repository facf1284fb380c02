package handlers

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"strings"
)

// UploadErrorCode classifies why the uploaded file could not be received.
type UploadErrorCode string

const (
	UploadTooLarge     UploadErrorCode = "too_large"
	UploadPartial      UploadErrorCode = "partial"
	UploadNoFile       UploadErrorCode = "no_file"
	UploadNoTmpDir     UploadErrorCode = "no_tmp_dir"
	UploadCantWrite    UploadErrorCode = "cant_write"
	UploadNotMultipart UploadErrorCode = "not_multipart"
	UploadUnknown      UploadErrorCode = "unknown"
)

var uploadErrorMessages = map[UploadErrorCode]string{
	UploadTooLarge:     "File is larger than the maximum upload size.",
	UploadPartial:      "File was only partially uploaded.",
	UploadNoFile:       "No file was selected.",
	UploadNoTmpDir:     "Missing temporary folder on server.",
	UploadCantWrite:    "Failed to write file to disk.",
	UploadNotMultipart: "Request is not a multipart upload.",
}

// UploadError is an upload transport failure. It is always a client error.
type UploadError struct {
	Code UploadErrorCode
	Err  error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message(), e.Err)
	}
	return e.Message()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Message is the human-readable text returned to the client.
func (e *UploadError) Message() string {
	if msg, ok := uploadErrorMessages[e.Code]; ok {
		return msg
	}
	return "Unknown upload error."
}

// classifyUploadError maps multipart/body read errors onto upload codes.
func classifyUploadError(err error) *UploadError {
	var maxBytesErr *http.MaxBytesError
	var pathErr *fs.PathError

	switch {
	case errors.As(err, &maxBytesErr),
		errors.Is(err, multipart.ErrMessageTooLarge),
		strings.Contains(err.Error(), "request body too large"):
		return &UploadError{Code: UploadTooLarge, Err: err}
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary):
		return &UploadError{Code: UploadNotMultipart, Err: err}
	case errors.Is(err, http.ErrMissingFile):
		return &UploadError{Code: UploadNoFile, Err: err}
	case errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return &UploadError{Code: UploadPartial, Err: err}
	case errors.As(err, &pathErr):
		if pathErr.Op == "createtemp" || pathErr.Op == "mkdir" {
			return &UploadError{Code: UploadNoTmpDir, Err: err}
		}
		return &UploadError{Code: UploadCantWrite, Err: err}
	default:
		return &UploadError{Code: UploadUnknown, Err: err}
	}
}
