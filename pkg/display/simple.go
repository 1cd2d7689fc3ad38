package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/statfold/statfold/pkg/engine"
	"github.com/statfold/statfold/pkg/record"
)

// simpleFormatter renders one line per group.
type simpleFormatter struct {
	config Config
}

// FormatResult implements Formatter.FormatResult.
func (f *simpleFormatter) FormatResult(w io.Writer, res *engine.Result) error {
	for _, r := range res.GroupedRecords {
		if err := f.writeLine(w, r); err != nil {
			return err
		}
	}

	if res.Totals != nil {
		if _, err := fmt.Fprint(w, "totals: "); err != nil {
			return err
		}
		if err := f.writeLine(w, res.Totals); err != nil {
			return err
		}
	}

	for _, d := range res.Diagnostics {
		if _, err := fmt.Fprintf(w, "degraded record %d (%s): %s\n",
			d.RecordIndex, d.Scope, d.Reason); err != nil {
			return err
		}
	}

	return nil
}

func (f *simpleFormatter) writeLine(w io.Writer, r record.Record) error {
	cols := columns([]record.Record{r}, f.config.ShowMetadata)

	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, fmt.Sprintf("%s=%s", col, formatCell(r[col])))
	}

	_, err := fmt.Fprintln(w, strings.Join(parts, " "))
	return err
}
