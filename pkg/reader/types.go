// Package reader loads records from JSONL files.
//
// Each line is one JSON object decoded into a dynamic record. Decoding
// uses json.Number so large integers and high-precision values reach
// the accumulator without passing through float64. ReadFile resumes
// from a byte offset, and a PositionStore remembers offsets per file,
// which is how the watch loop folds only lines appended since its last
// pass.
package reader

import "github.com/statfold/statfold/pkg/record"

// Reader provides methods for reading JSONL record files.
type Reader interface {
	// ReadFile reads records from the file at path, starting at the
	// given byte offset.
	//
	// Returns:
	//   - Successfully decoded records
	//   - The new offset after reading
	//   - Error if the file cannot be read or is too large
	//
	// Malformed lines are counted, logged, and skipped rather than
	// failing the read.
	ReadFile(path string, offset int64) ([]record.Record, int64, error)

	// ReadAll reads every .jsonl file under each of the given paths
	// (files are read whole; directories are walked one level deep).
	ReadAll(paths []string) ([]record.Record, error)
}

// PositionStore persists per-file read offsets.
type PositionStore interface {
	// GetPosition returns the stored offset for path, or 0 when none is
	// stored.
	GetPosition(path string) (int64, error)

	// SetPosition stores the offset for path.
	SetPosition(path string, offset int64) error
}
