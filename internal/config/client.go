package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ClientConfig configures the enhancer CLI. It is read from a TOML file;
// every field has a usable default so the file is optional.
type ClientConfig struct {
	RelayURL          string         `toml:"relay_url"`
	DataDir           string         `toml:"data_dir"`
	KeyringBackend    string         `toml:"keyring_backend"`
	HistoryCapacity   int            `toml:"history_capacity"`
	ThumbnailWidth    int            `toml:"thumbnail_width"`
	StorageQuotaBytes int            `toml:"storage_quota_bytes"`
	Supabase          SupabaseConfig `toml:"supabase"`
}

// SupabaseConfig enables Supabase Storage for full-size history images.
// Leaving URL empty keeps full-size images in the local data directory.
type SupabaseConfig struct {
	URL    string `toml:"url"`
	Key    string `toml:"key"`
	Bucket string `toml:"bucket"`
}

func DefaultClientConfig() *ClientConfig {
	dataDir := ".ai-image-enhancer"
	if dir, err := os.UserConfigDir(); err == nil {
		dataDir = filepath.Join(dir, "ai-image-enhancer")
	}
	return &ClientConfig{
		RelayURL:          "http://localhost:8080/api/v1/enhance",
		DataDir:           dataDir,
		KeyringBackend:    "",
		HistoryCapacity:   30,
		ThumbnailWidth:    200,
		StorageQuotaBytes: 5 << 20,
		Supabase: SupabaseConfig{
			Bucket: "enhanced-images",
		},
	}
}

// LoadClient reads path on top of the defaults. A missing file is not an error.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := DefaultClientConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read client config: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse client config %s: %w", path, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid client configuration: %w", err)
	}
	return cfg, nil
}

func (c *ClientConfig) Validate() error {
	if c.RelayURL == "" {
		return fmt.Errorf("relay_url is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.HistoryCapacity <= 0 {
		return fmt.Errorf("history_capacity must be positive")
	}
	if c.ThumbnailWidth <= 0 {
		return fmt.Errorf("thumbnail_width must be positive")
	}
	if c.StorageQuotaBytes < 0 {
		return fmt.Errorf("storage_quota_bytes must not be negative")
	}
	if c.Supabase.URL != "" && (c.Supabase.Key == "" || c.Supabase.Bucket == "") {
		return fmt.Errorf("supabase.key and supabase.bucket are required when supabase.url is set")
	}
	return nil
}

// Save writes the config as TOML, creating parent directories.
func (c *ClientConfig) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode client config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
