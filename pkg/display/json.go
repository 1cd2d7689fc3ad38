package display

import (
	"encoding/json"
	"io"

	"github.com/statfold/statfold/pkg/engine"
	"github.com/statfold/statfold/pkg/record"
)

// jsonFormatter renders results as JSON.
type jsonFormatter struct {
	config Config
}

// jsonResult is the wire shape of a formatted result.
type jsonResult struct {
	GroupedRecords []record.Record     `json:"groupedRecords"`
	Totals         record.Record       `json:"totals,omitempty"`
	Diagnostics    []engine.Diagnostic `json:"diagnostics,omitempty"`
}

// FormatResult implements Formatter.FormatResult.
//
// Records are sanitized first: NaN and infinite derived values become
// their decimal string forms, which encoding/json can carry.
func (f *jsonFormatter) FormatResult(w io.Writer, res *engine.Result) error {
	out := jsonResult{
		GroupedRecords: sanitizeAll(res.GroupedRecords),
		Diagnostics:    res.Diagnostics,
	}
	if res.Totals != nil {
		out.Totals = record.Sanitize(res.Totals)
	}

	enc := json.NewEncoder(w)
	if !f.config.Compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}

func sanitizeAll(recs []record.Record) []record.Record {
	out := make([]record.Record, len(recs))
	for i, r := range recs {
		out[i] = record.Sanitize(r)
	}
	return out
}
