package display

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/statfold/statfold/pkg/accum"
	"github.com/statfold/statfold/pkg/record"
)

// New creates a formatter for the configured format.
func New(cfg Config) Formatter {
	switch cfg.Format {
	case FormatJSON:
		return &jsonFormatter{config: cfg}
	case FormatSimple:
		return &simpleFormatter{config: cfg}
	default:
		return &tableFormatter{config: cfg}
	}
}

// columns returns the display columns for a record set: every top-level
// key seen across the records, sorted, with the metadata field dropped
// unless requested.
func columns(recs []record.Record, showMetadata bool) []string {
	seen := make(map[string]struct{})
	for _, r := range recs {
		for k := range r {
			if k == accum.MetadataKey && !showMetadata {
				continue
			}
			seen[k] = struct{}{}
		}
	}

	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// formatCell renders one record value for text output.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		switch {
		case math.IsNaN(t):
			return "NaN"
		case math.IsInf(t, 1):
			return "Infinity"
		case math.IsInf(t, -1):
			return "-Infinity"
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(record.Sanitize(record.Record{"v": t})["v"])
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}
