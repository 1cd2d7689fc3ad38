package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		InputDirs: []string{"./data"},
		Watch: WatchConfig{
			DebounceInterval: 250 * time.Millisecond,
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Display: DisplayConfig{
			DefaultFormat: "table",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// defaultDBPath returns the default database file path,
// ~/.config/statfold/statfold.db.
func defaultDBPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./statfold.db"
	}
	return filepath.Join(homeDir, ".config", "statfold", "statfold.db")
}

// defaultConfigPath returns the default configuration file path,
// ~/.config/statfold/config.yaml.
func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(homeDir, ".config", "statfold", "config.yaml")
}
