package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Parallel()

	log := New(Config{Level: "info", Output: "stderr", Format: "text"})
	if log == nil {
		t.Fatal("New() returned nil")
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewWithWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug")

	log.Info("records loaded", "count", 42)

	out := buf.String()
	if !strings.Contains(out, "records loaded") {
		t.Errorf("log output missing message: %q", out)
	}
	if !strings.Contains(out, "count=42") {
		t.Errorf("log output missing field: %q", out)
	}
}

func TestNewWithWriter_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "warn")

	log.Debug("ignored")
	log.Info("also ignored")
	log.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "ignored") {
		t.Errorf("low-severity messages leaked: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestWith(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := NewWithWriter(&buf, "info").With("job", "revenue-by-region")

	log.Info("run complete")

	if !strings.Contains(buf.String(), "job=revenue-by-region") {
		t.Errorf("context field missing: %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	t.Parallel()

	log := Nop()
	log.Debug("a")
	log.Info("b")
	log.Warn("c")
	log.Error("d")

	if log.With("k", "v") == nil {
		t.Fatal("Nop().With() returned nil")
	}
}
