package engine

import "errors"

// Configuration errors returned by Aggregate before any record is
// processed.
var (
	// ErrUnknownMethod is returned for an unrecognized field method.
	ErrUnknownMethod = errors.New("unknown aggregation method")

	// ErrMissingSourceField is returned when a method that reads a
	// source field is configured without one.
	ErrMissingSourceField = errors.New("method requires a sourceField")

	// ErrMissingWeightField is returned when weightedAverage is
	// configured without a weightField.
	ErrMissingWeightField = errors.New("weightedAverage requires a weightField")

	// ErrNoFields is returned when a request specifies no output fields.
	ErrNoFields = errors.New("request has no output fields")
)
