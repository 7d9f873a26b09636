package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Table is a plain-text table with optional right-aligned columns.
type Table struct {
	Headers []string
	Rows    [][]string
	Right   map[int]bool
}

// Lines renders the header, a rule, and the rows.
func (t Table) Lines() []string {
	widths := columnWidths(t.Headers, t.Rows)
	if len(widths) == 0 {
		return nil
	}
	lines := make([]string, 0, len(t.Rows)+2)
	if len(t.Headers) > 0 {
		lines = append(lines, formatRow(t.Headers, widths, t.Right))
		lines = append(lines, ruleLine(widths))
	}
	for _, row := range t.Rows {
		lines = append(lines, formatRow(row, widths, t.Right))
	}
	return lines
}

func columnWidths(headers []string, rows [][]string) []int {
	colCount := len(headers)
	for _, row := range rows {
		colCount = max(colCount, len(row))
	}
	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}
	return widths
}

func ruleLine(widths []int) string {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	return strings.Join(parts, " ")
}

func formatRow(row []string, widths []int, right map[int]bool) string {
	var b strings.Builder
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, width, right[i]))
	}
	return strings.TrimRight(b.String(), " ")
}

func padCell(value string, width int, rightAlign bool) string {
	padding := width - displayWidth(value)
	if padding <= 0 {
		return value
	}
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
