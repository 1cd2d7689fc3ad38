// Package config provides configuration management for statfold.
//
// Application configuration is loaded with the following precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file
// 3. Default values (lowest priority)
//
// Aggregation job specifications, the declarative requests the engine
// executes, are separate YAML documents loaded with LoadJobSpec.
//
// Example usage:
//
//	cfg, err := config.NewLoader("").Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	job, err := config.LoadJobSpec("jobs/revenue-by-region.yaml")
package config

import (
	"time"
)

// Config represents the complete application configuration.
//
// Invariants:
// - Watch.DebounceInterval must be > 0
// - Storage.DBPath must be non-empty
// - Display.DefaultFormat must be table, json, or simple
// - Logging.Level and Logging.Format must be recognized.
type Config struct {
	// Directories scanned and watched for JSONL record files
	InputDirs []string `yaml:"input_dirs" json:"inputDirs"`

	// Watch settings
	Watch WatchConfig `yaml:"watch" json:"watch"`

	// Storage settings
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Display settings
	Display DisplayConfig `yaml:"display" json:"display"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WatchConfig contains live-watch settings.
type WatchConfig struct {
	// Quiet period before a changed file is re-read
	DebounceInterval time.Duration `yaml:"debounce_interval" json:"debounceInterval"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB file holding snapshots and read positions
	DBPath string `yaml:"db_path" json:"dbPath"`
}

// DisplayConfig contains display-related settings.
type DisplayConfig struct {
	// Default output format (table, json, simple)
	DefaultFormat string `yaml:"default_format" json:"defaultFormat"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`
}

// Validate checks if the configuration satisfies all invariants.
func (c *Config) Validate() error {
	if c.Watch.DebounceInterval <= 0 {
		return ErrInvalidDebounce
	}
	if c.Storage.DBPath == "" {
		return ErrNoDBPath
	}

	switch c.Display.DefaultFormat {
	case "table", "json", "simple":
	default:
		return ErrInvalidFormat
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}
