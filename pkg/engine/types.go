// Package engine groups records by composite key, drives accumulation,
// and derives the requested output fields.
//
// The engine is a pure, synchronous computation: one call consumes a
// finite in-memory slice of records and returns grouped results plus a
// grand total. Each call owns its accumulator state exclusively, so any
// number of aggregations may run concurrently. Composability stands in
// for distributed coordination: independent workers aggregate disjoint
// chunks, and a later call merges their outputs by treating them as
// re-aggregatable input records.
//
// Example usage:
//
//	eng := engine.New(engine.Config{Logger: log})
//	res, err := eng.Aggregate(engine.Request{
//	    Records:   records,
//	    MatchKeys: []string{"region"},
//	    Fields: map[string]engine.FieldSpec{
//	        "averageRevenue": {Method: accum.MethodAverage, SourceField: "revenue"},
//	        "totalRevenue":   {Method: accum.MethodSum, SourceField: "revenue"},
//	    },
//	})
package engine

import (
	"github.com/statfold/statfold/pkg/accum"
	"github.com/statfold/statfold/pkg/logger"
	"github.com/statfold/statfold/pkg/record"
)

// FieldSpec describes one requested output field.
type FieldSpec struct {
	// Method is the derived statistic to compute.
	Method accum.Method `yaml:"method" json:"method"`

	// SourceField is the input field path the statistic reads. Required
	// for every method except count.
	SourceField string `yaml:"sourceField" json:"sourceField,omitempty"`

	// WeightField is the input field path holding the weight. Required
	// for weightedAverage only.
	WeightField string `yaml:"weightField" json:"weightField,omitempty"`
}

// Request is a declarative aggregation request.
type Request struct {
	// Records is the input. It may mix raw records with aggregated
	// records produced by an earlier call; compatible aggregated records
	// fold in by their metadata rather than being recounted.
	Records []record.Record

	// MatchKeys lists the field paths to group by, in order. Empty
	// means a single implicit group.
	MatchKeys []string

	// Buckets maps a match key to ascending numeric breakpoints. Values
	// of that key are discretized to bucket labels before grouping.
	Buckets map[string][]float64

	// Fields maps each output field path to its specification.
	Fields map[string]FieldSpec

	// SortBy orders the grouped records by the listed output field
	// paths, ascending. A sort key naming a bucketed match key orders by
	// the bucket's lower bound, not lexically by label.
	SortBy []string

	// OmitMetadata strips the reserved metadata key from all output
	// records. The zero value keeps metadata attached, which is what
	// re-aggregation and augmentation require; stripped output can only
	// ever re-enter as plain raw records.
	OmitMetadata bool
}

// Result is the outcome of one aggregation.
type Result struct {
	// GroupedRecords holds one output record per group.
	GroupedRecords []record.Record

	// Totals is the single-group aggregation of all input records,
	// computed as if MatchKeys were empty.
	Totals record.Record

	// Diagnostics records every input whose attached metadata was
	// present but unusable for this request. Those records were folded
	// as raw data points instead of failing the run.
	Diagnostics []Diagnostic
}

// Diagnostic identifies one degraded-input condition.
type Diagnostic struct {
	// RecordIndex is the position of the record in Request.Records.
	RecordIndex int `json:"recordIndex"`

	// Scope is "grouped" or "totals", naming the pass that hit the
	// mismatch.
	Scope string `json:"scope"`

	// Reason is one of the Reason* constants.
	Reason string `json:"reason"`

	// Detail describes the specific mismatch.
	Detail string `json:"detail,omitempty"`
}

// Diagnostic reasons.
const (
	// ReasonBadMetadata: the reserved key was present but did not decode.
	ReasonBadMetadata = "malformed metadata"

	// ReasonMatchKeys: the record's metadata match keys do not cover the
	// requested match keys.
	ReasonMatchKeys = "match keys not covered"

	// ReasonMissingMetric: the metadata lacks a metric state this
	// request needs.
	ReasonMissingMetric = "missing metric state"
)

// Config contains engine configuration.
type Config struct {
	// Logger receives debug output and degraded-input warnings.
	// Defaults to a no-op logger.
	Logger logger.Logger
}

// Engine computes grouped aggregations.
type Engine interface {
	// Aggregate runs one aggregation request.
	//
	// Returns:
	//   - The grouped result, totals, and any degraded-input diagnostics
	//   - An error only for configuration problems, detected before any
	//     record is processed
	Aggregate(req Request) (*Result, error)
}
