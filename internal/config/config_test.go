package config

import (
	"os"
	"testing"
	"time"
)

// unsetEnv removes key for the duration of the test.
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	original, ok := os.LookupEnv(key)
	os.Unsetenv(key)
	t.Cleanup(func() {
		if ok {
			os.Setenv(key, original)
		}
	})
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "LOG_LEVEL", "EMBEDDING_PROVIDER", "EMBEDDING_DIM", "EMBEDDING_MODEL",
		"IMAGE_MODEL", "IMAGE_SIZE", "CACHE_PROVIDER", "CACHE_TTL", "QUEUE_URL", "MODEL_TIMEOUT_SECONDS",
	} {
		unsetEnv(t, key)
	}

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8000},
		{"LogLevel", cfg.LogLevel, "info"},
		{"EmbeddingProvider", cfg.EmbeddingProvider, "openai"},
		{"EmbeddingDim", cfg.EmbeddingDim, 128},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
		{"ImageModel", cfg.ImageModel, "mobilenet_v2"},
		{"ImageSize", cfg.ImageSize, 224},
		{"CacheProvider", cfg.CacheProvider, "noop"},
		{"QueueURL", cfg.QueueURL, ""},
		{"MaxUploadSize", cfg.MaxUploadSize, int64(10485760)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}

	if cfg.CacheTTLDuration() != time.Hour {
		t.Errorf("expected cache ttl 1h, got %v", cfg.CacheTTLDuration())
	}
	if cfg.ModelTimeoutDuration() != 30*time.Second {
		t.Errorf("expected model timeout 30s, got %v", cfg.ModelTimeoutDuration())
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("EMBEDDING_DIM", "64")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.EmbeddingDim != 64 {
		t.Errorf("expected embedding dim 64, got %d", cfg.EmbeddingDim)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "hash")
	t.Setenv("CACHE_PROVIDER", "redis")

	cfg := Load()

	if cfg.EmbeddingProvider != "hash" {
		t.Errorf("expected embedding provider 'hash', got %s", cfg.EmbeddingProvider)
	}
	if cfg.CacheProvider != "redis" {
		t.Errorf("expected cache provider 'redis', got %s", cfg.CacheProvider)
	}
}
