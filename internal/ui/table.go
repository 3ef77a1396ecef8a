package ui

import (
	"strings"
)

// Table renders rows of columns aligned by the widest cell in each column.
// Used by the CLI for index and table listings.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends one row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render renders the table as a formatted string.
func (t *Table) Render() string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = len(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	if len(t.Headers) > 0 {
		for i, h := range t.Headers {
			b.WriteString(Bold(pad(h, widths[i])))
			b.WriteString("  ")
		}
		b.WriteString("\n")
		for i := range t.Headers {
			b.WriteString(Dim(strings.Repeat("─", widths[i])))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteString("\n")
	}

	return b.String()
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
