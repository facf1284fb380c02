// Package storage is the client's local key-value persistence. Values are
// strings keyed by a small fixed set of names, mirroring browser storage.
package storage

import "errors"

// Keys used by the client.
const (
	KeyHistory      = "imageHistory"
	KeyAPIKey       = "geminiApiKey"
	KeyModel        = "geminiModel"
	KeyDefaultLevel = "defaultCreativity"
)

// ErrQuotaExceeded is returned by Set when the write would exceed the store's quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

type KeyValue interface {
	// Get reports ok=false for a missing key.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}
