package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{"zero debounce", func(c *Config) { c.Watch.DebounceInterval = 0 }, ErrInvalidDebounce},
		{"empty db path", func(c *Config) { c.Storage.DBPath = "" }, ErrNoDBPath},
		{"bad format", func(c *Config) { c.Display.DefaultFormat = "xml" }, ErrInvalidFormat},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, ErrInvalidLogLevel},
		{"bad log format", func(c *Config) { c.Logging.Format = "csv" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	doc := `
input_dirs: [/var/records]
watch:
  debounce_interval: 500ms
storage:
  db_path: /tmp/statfold-test.db
display:
  default_format: json
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.InputDirs) != 1 || cfg.InputDirs[0] != "/var/records" {
		t.Errorf("InputDirs = %v", cfg.InputDirs)
	}
	if cfg.Watch.DebounceInterval != 500*time.Millisecond {
		t.Errorf("DebounceInterval = %v", cfg.Watch.DebounceInterval)
	}
	if cfg.Display.DefaultFormat != "json" {
		t.Errorf("DefaultFormat = %v", cfg.Display.DefaultFormat)
	}
	// Unset file values keep their defaults.
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %v, want default text", cfg.Logging.Format)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := NewLoader("/no/such/config.yaml").Load()
	if err == nil {
		t.Fatal("Load() with missing explicit file expected error")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("input_dirs: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(path).Load()
	if err == nil {
		t.Fatal("Load() with invalid YAML expected error")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STATFOLD_DB_PATH", "/tmp/env-override.db")
	t.Setenv("STATFOLD_LOG_LEVEL", "error")
	t.Setenv("STATFOLD_INPUT_DIRS", "/a, /b")

	cfg, err := NewLoader("").Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Storage.DBPath != "/tmp/env-override.db" {
		t.Errorf("DBPath = %v", cfg.Storage.DBPath)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("Level = %v", cfg.Logging.Level)
	}
	if len(cfg.InputDirs) != 2 || cfg.InputDirs[1] != "/b" {
		t.Errorf("InputDirs = %v", cfg.InputDirs)
	}
}

func TestLoadJobSpec(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "job.yaml")
	doc := `
name: revenue-by-region
match_keys: [region]
buckets:
  score: [0, 10, 20]
fields:
  averageRevenue:
    method: average
    source_field: revenue
  weightedRevenue:
    method: weightedAverage
    source_field: revenue
    weight_field: daysActive
sort_by: [region]
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	job, err := LoadJobSpec(path)
	if err != nil {
		t.Fatalf("LoadJobSpec() error = %v", err)
	}

	if job.Name != "revenue-by-region" {
		t.Errorf("Name = %q", job.Name)
	}
	if len(job.Buckets["score"]) != 3 {
		t.Errorf("Buckets = %v", job.Buckets)
	}

	req := job.Request(nil)
	if len(req.Fields) != 2 {
		t.Fatalf("Request().Fields = %v", req.Fields)
	}
	f := req.Fields["weightedRevenue"]
	if f.SourceField != "revenue" || f.WeightField != "daysActive" {
		t.Errorf("weightedRevenue spec = %+v", f)
	}
}

func TestLoadJobSpec_NoFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: empty\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadJobSpec(path); !errors.Is(err, ErrNoJobFields) {
		t.Fatalf("LoadJobSpec() error = %v, want %v", err, ErrNoJobFields)
	}
}
