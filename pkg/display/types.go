// Package display provides output formatting for aggregation results.
//
// It supports multiple output formats (table, JSON, simple text). The
// table format fits itself to the terminal width when writing to one.
package display

import (
	"io"

	"github.com/statfold/statfold/pkg/engine"
)

// Format represents an output format.
type Format string

const (
	// FormatTable renders results as aligned text tables.
	FormatTable Format = "table"

	// FormatJSON renders results as JSON.
	FormatJSON Format = "json"

	// FormatSimple renders one line per group.
	FormatSimple Format = "simple"
)

// Valid reports whether f names a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatTable, FormatJSON, FormatSimple:
		return true
	}
	return false
}

// Formatter renders aggregation results.
type Formatter interface {
	// FormatResult writes the grouped records, totals, and any
	// diagnostics from one aggregation run.
	FormatResult(w io.Writer, res *engine.Result) error
}

// Config contains formatter configuration.
type Config struct {
	// Format specifies the output format. Default: FormatTable.
	Format Format

	// ShowMetadata includes the aggregation metadata field in the
	// output. JSON output always includes it; table and simple output
	// hide it unless this is set.
	ShowMetadata bool

	// Compact reduces whitespace (single-space table gaps, unindented
	// JSON).
	Compact bool

	// MaxWidth caps the table width in characters. Zero means detect
	// the terminal width when writing to one, otherwise no cap.
	MaxWidth int
}
