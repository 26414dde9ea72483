package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "test-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("address = %q", cfg.ServerAddress())
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("max attempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.BaseRetryDelay != time.Second {
		t.Errorf("base delay = %s, want 1s", cfg.BaseRetryDelay)
	}
	if cfg.Endpoint == "" {
		t.Error("endpoint default missing")
	}
	if cfg.AzureConfigured() {
		t.Error("azure should not be configured by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "test-key")
	t.Setenv("GENAI_ENDPOINT", "https://example.com/generate")
	t.Setenv("GENAI_MAX_ATTEMPTS", "5")
	t.Setenv("GENAI_BASE_RETRY_DELAY", "250ms")
	t.Setenv("PORT", "9090")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Endpoint != "https://example.com/generate" {
		t.Errorf("endpoint = %q", cfg.Endpoint)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("max attempts = %d", cfg.MaxAttempts)
	}
	if cfg.BaseRetryDelay != 250*time.Millisecond {
		t.Errorf("base delay = %s", cfg.BaseRetryDelay)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q", cfg.Port)
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing api key", map[string]string{}},
		{"bad port", map[string]string{"GENAI_API_KEY": "k", "PORT": "not-a-port"}},
		{"port out of range", map[string]string{"GENAI_API_KEY": "k", "PORT": "70000"}},
		{"zero attempts", map[string]string{"GENAI_API_KEY": "k", "GENAI_MAX_ATTEMPTS": "0"}},
		{"negative body size", map[string]string{"GENAI_API_KEY": "k", "MAX_REQUEST_BODY_SIZE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadFromEnv(); err == nil {
				t.Error("expected error, got none")
			}
		})
	}
}
