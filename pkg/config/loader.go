package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load loads configuration with the following precedence:
	// 1. Environment variables
	// 2. Configuration file
	// 3. Default values
	//
	// Returns the merged configuration or an error if validation fails.
	Load() (*Config, error)

	// LoadFromFile loads configuration from a specific file.
	LoadFromFile(path string) (*Config, error)
}

// loader implements the Loader interface.
type loader struct {
	configPath string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, searches for a config file in:
// 1. ./statfold.yaml (current directory)
// 2. ~/.config/statfold/config.yaml.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = l.findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicitly named file must load; a discovered one may
			// be absent.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	applyEnvVars(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// findConfigFile searches standard locations, returning empty when
// nothing is found.
func (l *loader) findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SearchPaths returns the config file locations checked, in order of
// precedence.
func SearchPaths() []string {
	return []string{
		"./statfold.yaml",
		defaultConfigPath(),
	}
}

// Save writes the configuration as YAML to path, creating parent
// directories as needed.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// mergeConfigs overlays non-zero file values on the defaults.
func mergeConfigs(base, file *Config) *Config {
	merged := *base

	if len(file.InputDirs) > 0 {
		merged.InputDirs = file.InputDirs
	}
	if file.Watch.DebounceInterval > 0 {
		merged.Watch.DebounceInterval = file.Watch.DebounceInterval
	}
	if file.Storage.DBPath != "" {
		merged.Storage.DBPath = file.Storage.DBPath
	}
	if file.Display.DefaultFormat != "" {
		merged.Display.DefaultFormat = file.Display.DefaultFormat
	}
	if file.Logging.Level != "" {
		merged.Logging.Level = file.Logging.Level
	}
	if file.Logging.Output != "" {
		merged.Logging.Output = file.Logging.Output
	}
	if file.Logging.Format != "" {
		merged.Logging.Format = file.Logging.Format
	}

	return &merged
}

// applyEnvVars overrides configuration from STATFOLD_* environment
// variables.
//
// Recognized variables:
//   - STATFOLD_INPUT_DIRS (comma-separated)
//   - STATFOLD_DB_PATH
//   - STATFOLD_DEBOUNCE (duration, e.g. 500ms)
//   - STATFOLD_FORMAT
//   - STATFOLD_LOG_LEVEL, STATFOLD_LOG_OUTPUT, STATFOLD_LOG_FORMAT
func applyEnvVars(cfg *Config) {
	if v := os.Getenv("STATFOLD_INPUT_DIRS"); v != "" {
		dirs := strings.Split(v, ",")
		for i := range dirs {
			dirs[i] = strings.TrimSpace(dirs[i])
		}
		cfg.InputDirs = dirs
	}
	if v := os.Getenv("STATFOLD_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}
	if v := os.Getenv("STATFOLD_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.DebounceInterval = d
		}
	}
	if v := os.Getenv("STATFOLD_FORMAT"); v != "" {
		cfg.Display.DefaultFormat = v
	}
	if v := os.Getenv("STATFOLD_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STATFOLD_LOG_OUTPUT"); v != "" {
		cfg.Logging.Output = v
	}
	if v := os.Getenv("STATFOLD_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
