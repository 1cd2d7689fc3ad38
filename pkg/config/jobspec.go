package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/statfold/statfold/pkg/accum"
	"github.com/statfold/statfold/pkg/engine"
	"github.com/statfold/statfold/pkg/record"
)

// JobSpec is the YAML form of one aggregation request.
//
// Example document:
//
//	name: revenue-by-region
//	match_keys: [region]
//	buckets:
//	  score: [0, 10, 20]
//	fields:
//	  averageRevenue:
//	    method: average
//	    source_field: revenue
//	  weightedRevenue:
//	    method: weightedAverage
//	    source_field: revenue
//	    weight_field: daysActive
//	sort_by: [region]
type JobSpec struct {
	// Name identifies the job; snapshots are stored under it.
	Name string `yaml:"name"`

	// MatchKeys lists the grouping field paths, in order.
	MatchKeys []string `yaml:"match_keys"`

	// Buckets maps a match key to ascending numeric breakpoints.
	Buckets map[string][]float64 `yaml:"buckets"`

	// Fields maps output field paths to their specifications.
	Fields map[string]JobField `yaml:"fields"`

	// SortBy orders grouped output by these field paths.
	SortBy []string `yaml:"sort_by"`

	// OmitMetadata strips aggregation metadata from the output,
	// forfeiting later re-aggregation of it.
	OmitMetadata bool `yaml:"omit_metadata"`
}

// JobField is the YAML form of one output field specification.
type JobField struct {
	Method      string `yaml:"method"`
	SourceField string `yaml:"source_field"`
	WeightField string `yaml:"weight_field"`
}

// LoadJobSpec reads a job specification document.
func LoadJobSpec(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to read job spec %s: %w", path, err)
	}

	var job JobSpec
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("job spec %s: %w", path, err)
	}

	return &job, nil
}

// Validate checks the structural invariants the engine cannot see.
// Method-level validation (unknown methods, missing source or weight
// fields) stays with the engine, which checks before touching records.
func (j *JobSpec) Validate() error {
	if len(j.Fields) == 0 {
		return ErrNoJobFields
	}
	return nil
}

// Request converts the job spec into an engine request over records.
func (j *JobSpec) Request(records []record.Record) engine.Request {
	fields := make(map[string]engine.FieldSpec, len(j.Fields))
	for path, f := range j.Fields {
		fields[path] = engine.FieldSpec{
			Method:      accum.Method(f.Method),
			SourceField: f.SourceField,
			WeightField: f.WeightField,
		}
	}

	return engine.Request{
		Records:      records,
		MatchKeys:    j.MatchKeys,
		Buckets:      j.Buckets,
		Fields:       fields,
		SortBy:       j.SortBy,
		OmitMetadata: j.OmitMetadata,
	}
}
