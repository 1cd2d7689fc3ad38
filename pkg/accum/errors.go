package accum

import "errors"

// Common errors returned by the accum package.
var (
	// ErrUnknownMethod is returned for a method name outside the
	// supported set.
	ErrUnknownMethod = errors.New("unknown aggregation method")

	// ErrUnknownMetric is returned when a derived value is requested for
	// a metric key the state never folded.
	ErrUnknownMetric = errors.New("unknown metric key")

	// ErrMetricKindMismatch is returned when standard and weighted
	// metric states are mixed.
	ErrMetricKindMismatch = errors.New("metric kind mismatch")

	// ErrBadMetadata is returned when attached aggregation metadata does
	// not decode.
	ErrBadMetadata = errors.New("malformed aggregation metadata")
)
