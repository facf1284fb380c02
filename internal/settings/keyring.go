package settings

import (
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"
)

const keyringService = "ai-image-enhancer"

// OpenKeyring opens the named keyring backend ("keychain", "secret-service",
// "wincred", "file", ...). An empty backend or "none" returns a nil keyring,
// which keeps the API key in the key-value store.
func OpenKeyring(backend, dataDir string) (keyring.Keyring, error) {
	if backend == "" || backend == "none" {
		return nil, nil
	}
	ring, err := keyring.Open(keyring.Config{
		ServiceName:      keyringService,
		AllowedBackends:  []keyring.BackendType{keyring.BackendType(backend)},
		FileDir:          filepath.Join(dataDir, "keyring"),
		FilePasswordFunc: keyring.TerminalPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s keyring: %w", backend, err)
	}
	return ring, nil
}
