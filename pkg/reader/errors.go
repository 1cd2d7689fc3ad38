package reader

import "errors"

// Common errors returned by the reader package.
var (
	// ErrFileTooLarge is returned when a JSONL file exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrMalformedLine is returned when a line is not a valid JSON object.
	ErrMalformedLine = errors.New("malformed JSONL line")
)
