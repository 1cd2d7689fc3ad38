package store

import "errors"

// Common errors returned by the store package.
var (
	// ErrNoJobName is returned when a snapshot is saved without a job name.
	ErrNoJobName = errors.New("snapshot requires a job name")

	// ErrSnapshotNotFound is returned when a job has no stored snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
