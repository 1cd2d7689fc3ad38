package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidDebounce is returned when the watch debounce interval is <= 0.
	ErrInvalidDebounce = errors.New("invalid debounce interval: must be > 0")

	// ErrNoDBPath is returned when no database path is configured.
	ErrNoDBPath = errors.New("no database path configured")

	// ErrInvalidFormat is returned when the display format is not recognized.
	ErrInvalidFormat = errors.New("invalid display format: must be table, json, or simple")

	// ErrInvalidLogLevel is returned when the log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when the log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when a YAML document does not parse.
	ErrInvalidYAML = errors.New("invalid YAML syntax")

	// ErrNoJobFields is returned when a job spec declares no output fields.
	ErrNoJobFields = errors.New("job spec has no output fields")
)
