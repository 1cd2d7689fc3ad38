package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/statfold/statfold/pkg/engine"
	"github.com/statfold/statfold/pkg/record"
)

// tableFormatter renders results as aligned text tables.
type tableFormatter struct {
	config Config
}

// FormatResult implements Formatter.FormatResult.
func (f *tableFormatter) FormatResult(w io.Writer, res *engine.Result) error {
	if err := f.writeSection(w, "Groups", res.GroupedRecords); err != nil {
		return err
	}
	if res.Totals != nil {
		if err := f.writeSection(w, "Totals", []record.Record{res.Totals}); err != nil {
			return err
		}
	}
	return f.writeDiagnostics(w, res.Diagnostics)
}

func (f *tableFormatter) writeSection(w io.Writer, title string, recs []record.Record) error {
	if err := f.writeHeader(w, title); err != nil {
		return err
	}

	cols := columns(recs, f.config.ShowMetadata)
	rows := make([][]string, len(recs))
	for i, r := range recs {
		row := make([]string, len(cols))
		for j, col := range cols {
			row[j] = formatCell(r[col])
		}
		rows[i] = row
	}

	return f.writeTable(w, cols, rows)
}

func (f *tableFormatter) writeDiagnostics(w io.Writer, diags []engine.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}

	if err := f.writeHeader(w, "Degraded Records"); err != nil {
		return err
	}

	rows := make([][]string, len(diags))
	for i, d := range diags {
		rows[i] = []string{
			fmt.Sprintf("%d", d.RecordIndex),
			d.Scope,
			d.Reason,
			d.Detail,
		}
	}

	return f.writeTable(w, []string{"Record", "Pass", "Reason", "Detail"}, rows)
}

func (f *tableFormatter) writeHeader(w io.Writer, title string) error {
	if f.config.Compact {
		_, err := fmt.Fprintf(w, "%s\n", title)
		return err
	}
	_, err := fmt.Fprintf(w, "\n%s\n%s\n\n", title, strings.Repeat("=", len(title)))
	return err
}

// writeTable writes an aligned table, shrinking the widest columns when
// the output would exceed the available width.
func (f *tableFormatter) writeTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No data")
		return err
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	f.fitWidths(w, widths)

	if err := f.writeRow(w, header, widths); err != nil {
		return err
	}

	if !f.config.Compact {
		sep := make([]string, len(header))
		for i, width := range widths {
			sep[i] = strings.Repeat("-", width)
		}
		if err := f.writeRow(w, sep, widths); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if err := f.writeRow(w, row, widths); err != nil {
			return err
		}
	}

	if !f.config.Compact {
		_, err := fmt.Fprintln(w)
		return err
	}
	return nil
}

// fitWidths shrinks column widths until the table fits the target
// width. The widest column gives up space first.
func (f *tableFormatter) fitWidths(w io.Writer, widths []int) {
	target := f.config.MaxWidth
	if target == 0 {
		target = terminalWidth(w)
	}
	if target <= 0 {
		return
	}

	gap := 2
	if f.config.Compact {
		gap = 1
	}

	const minWidth = 8
	for total(widths, gap) > target {
		widest := 0
		for i := range widths {
			if widths[i] > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minWidth {
			return
		}
		widths[widest]--
	}
}

func total(widths []int, gap int) int {
	sum := 0
	for _, w := range widths {
		sum += w
	}
	if len(widths) > 1 {
		sum += gap * (len(widths) - 1)
	}
	return sum
}

// terminalWidth returns the width of w when it is a terminal, else 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	if !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

func (f *tableFormatter) writeRow(w io.Writer, cells []string, widths []int) error {
	gap := "  "
	if f.config.Compact {
		gap = " "
	}

	for i, cell := range cells {
		if i > 0 {
			if _, err := fmt.Fprint(w, gap); err != nil {
				return err
			}
		}
		if len(cell) > widths[i] {
			cell = truncate(cell, widths[i])
		}
		if _, err := fmt.Fprintf(w, "%-*s", widths[i], cell); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w)
	return err
}

func truncate(s string, width int) string {
	if width <= 3 {
		return s[:width]
	}
	return s[:width-3] + "..."
}
