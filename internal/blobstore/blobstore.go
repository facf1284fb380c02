// Package blobstore holds full-size history images outside the key-value
// store. Entries keep only the URI returned by Put.
package blobstore

import (
	"errors"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var ErrUnknownURI = errors.New("blob URI does not belong to this store")

type Store interface {
	Put(mimeType string, data []byte) (uri string, err error)
	Get(uri string) ([]byte, error)
	Delete(uri string) error
}

// objectName is a fresh name with an extension matching mimeType.
func objectName(mimeType string) string {
	ext := ".bin"
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		ext = m.Extension()
	}
	return uuid.NewString() + ext
}
