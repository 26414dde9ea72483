package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-1.5-flash:generateContent"

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	UpstreamTimeout    time.Duration
	MaxRequestBodySize int64

	// Generative endpoint settings
	Endpoint       string
	APIKey         string
	MaxAttempts    int
	BaseRetryDelay time.Duration

	// Optional Azure blob image source
	AzureAccountName string
	AzureAccountKey  string
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// AzureConfigured reports whether blob credentials were supplied.
func (c *Config) AzureConfigured() bool {
	return c.AzureAccountName != "" && c.AzureAccountKey != ""
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		UpstreamTimeout:    parseDurationOrDefault("UPSTREAM_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB, base64 inflates uploads
		Endpoint:           getEnvOrDefault("GENAI_ENDPOINT", defaultEndpoint),
		APIKey:             os.Getenv("GENAI_API_KEY"),
		MaxAttempts:        int(parseIntOrDefault("GENAI_MAX_ATTEMPTS", 3)),
		BaseRetryDelay:     parseDurationOrDefault("GENAI_BASE_RETRY_DELAY", time.Second),
		AzureAccountName:   os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureAccountKey:    os.Getenv("AZURE_STORAGE_KEY"),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GENAI_API_KEY must be set")
	}
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("GENAI_ENDPOINT must not be empty")
	}
	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("GENAI_MAX_ATTEMPTS must be >= 1 (got %d)", cfg.MaxAttempts)
	}
	if cfg.BaseRetryDelay <= 0 {
		return nil, fmt.Errorf("GENAI_BASE_RETRY_DELAY must be > 0 (got %s)", cfg.BaseRetryDelay)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.RequestTimeout <= 0 || cfg.UpstreamTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, upstream=%s)",
			cfg.RequestTimeout, cfg.UpstreamTimeout)
	}
	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
