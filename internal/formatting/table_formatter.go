package formatting

import (
	"fmt"
	"io"

	fstrings "feditest/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter provides rich table output formatting
type TableFormatter struct {
	options Options
}

// NewTableFormatter creates a new table formatter
func NewTableFormatter(options Options) Formatter {
	return &TableFormatter{
		options: options,
	}
}

// Format renders the listing's rows as a table followed by a total line.
func (f *TableFormatter) Format(w io.Writer, listing Listing) error {
	if len(listing.Rows) == 0 {
		_, err := fmt.Fprint(w, f.formatEmptyMessage("📋", "No items found"))
		return err
	}

	if listing.Title != "" && !f.options.Quiet {
		fmt.Fprintln(w, text.Bold.Sprint(listing.Title))
	}

	t := f.createTable(w)
	header := make(table.Row, len(listing.Headers))
	for i, h := range listing.Headers {
		header[i] = text.FgHiCyan.Sprint(h)
	}
	t.AppendHeader(header)

	for _, row := range listing.Rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			cell = fstrings.OneLine(cell, fstrings.CellMaxLen)
			if i == 0 {
				r[i] = text.FgHiCyan.Sprint(cell)
			} else {
				r[i] = cell
			}
		}
		t.AppendRow(r)
	}
	t.Render()

	if !f.options.Quiet {
		fmt.Fprintf(w, "\n%s %s %s\n",
			text.FgHiBlue.Sprint("Total:"),
			text.FgHiWhite.Sprint(len(listing.Rows)),
			text.FgHiBlue.Sprint("items"))
	}
	return nil
}

// createTable creates a new table with standard styling
func (f *TableFormatter) createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// formatEmptyMessage formats empty result messages
func (f *TableFormatter) formatEmptyMessage(icon, message string) string {
	return fmt.Sprintf("%s %s\n", text.FgYellow.Sprint(icon), text.FgYellow.Sprint(message))
}
