package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"invalid", slog.LevelInfo}, // Defaults to info
		{"", slog.LevelInfo},        // Defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := parseLevel(tt.level); got != tt.expected {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "embedder", "warn")

	log.Info("dropped")
	log.Warn("kept", "strategy", "fallback")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected one JSON line, got %q: %v", buf.String(), err)
	}
	if line["msg"] != "kept" {
		t.Errorf("expected msg 'kept', got %v", line["msg"])
	}
	if line["service"] != "embedder" {
		t.Errorf("expected service attribute, got %v", line["service"])
	}
	if line["strategy"] != "fallback" {
		t.Errorf("expected strategy attribute, got %v", line["strategy"])
	}
}

func TestNewLogger(t *testing.T) {
	if New("", "info") == nil {
		t.Fatal("expected non-nil logger")
	}
}
