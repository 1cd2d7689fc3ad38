package record

import "errors"

// Common errors returned by the record package.
var (
	// ErrInvalidPath is returned when a field path cannot be parsed.
	ErrInvalidPath = errors.New("invalid field path")
)
