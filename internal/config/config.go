package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Gemini API
	GeminiAPIBaseURL  string
	GeminiTimeout     time.Duration
	GeminiCAFile      string
	GeminiTLSInsecure bool

	// Uploads
	MaxUploadBytes int64

	// Server
	Port           string
	Environment    string
	LogLevel       string
	RequestTimeout time.Duration
}

func Load() (*Config, error) {
	// A missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		GeminiAPIBaseURL:  getEnv("GEMINI_API_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiTimeout:     time.Duration(getEnvInt("GEMINI_TIMEOUT_SECONDS", 180)) * time.Second,
		GeminiCAFile:      getEnv("GEMINI_CA_FILE", ""),
		GeminiTLSInsecure: getEnvBool("GEMINI_TLS_INSECURE", false),

		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),

		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 300)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.GeminiTLSInsecure {
		return fmt.Errorf("GEMINI_TLS_INSECURE is not supported: certificate validation cannot be disabled, use GEMINI_CA_FILE for private CAs")
	}
	if c.GeminiAPIBaseURL == "" {
		return fmt.Errorf("GEMINI_API_BASE_URL is required")
	}
	if !strings.HasPrefix(c.GeminiAPIBaseURL, "https://") && c.Environment == "production" {
		return fmt.Errorf("GEMINI_API_BASE_URL must use https in production")
	}
	if c.GeminiTimeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT_SECONDS must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.RequestTimeout < c.GeminiTimeout {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS (%s) must not be shorter than GEMINI_TIMEOUT_SECONDS (%s)", c.RequestTimeout, c.GeminiTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
