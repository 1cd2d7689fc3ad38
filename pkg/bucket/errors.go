package bucket

import "errors"

// Common errors returned by the bucket package.
var (
	// ErrBadLabel is returned when a string is not a parseable bucket label.
	ErrBadLabel = errors.New("not a bucket label")
)
