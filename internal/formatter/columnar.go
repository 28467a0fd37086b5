package formatter

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oakwood-commons/pathbench/internal/query"
)

const (
	columnSepWidth = 2
	minColumnWidth = 4
)

// ColumnarOptions configures columnar table rendering.
type ColumnarOptions struct {
	NoColor bool

	// TotalWidth is the total available width. If 0, uses terminal width.
	TotalWidth int

	// RowNumbers prepends a 1-based row number column.
	RowNumbers bool

	// HiddenColumns specifies columns to omit from output.
	HiddenColumns []string
}

// RenderColumnarTable renders rows under a header of column names. Columns
// whose every cell is numeric are right-aligned.
func RenderColumnarTable(columns []string, rows [][]string, opts ColumnarOptions) string {
	columns, rows = filterColumns(columns, rows, opts.HiddenColumns)
	if len(columns) == 0 {
		return ""
	}

	totalWidth := opts.TotalWidth
	if totalWidth <= 0 {
		totalWidth = TerminalWidth()
	}
	rowNumWidth := 0
	if opts.RowNumbers {
		rowNumWidth = len(strconv.Itoa(len(rows)))
		totalWidth -= rowNumWidth + columnSepWidth
	}
	widths := columnWidths(columns, rows, totalWidth)
	numeric := numericColumns(len(columns), rows)
	sep := strings.Repeat(" ", columnSepWidth)

	var b strings.Builder
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = padRight(truncate(c, widths[i]), widths[i])
		if !opts.NoColor {
			header[i] = headerStyle.Render(header[i])
		}
	}
	if opts.RowNumbers {
		num := padLeft("#", rowNumWidth)
		if !opts.NoColor {
			num = headerStyle.Render(num)
		}
		b.WriteString(num + sep)
	}
	b.WriteString(strings.Join(header, sep) + "\n")

	lineWidth := (len(widths) - 1) * columnSepWidth
	for _, w := range widths {
		lineWidth += w
	}
	if opts.RowNumbers {
		lineWidth += rowNumWidth + columnSepWidth
	}
	line := strings.Repeat("─", lineWidth)
	if !opts.NoColor {
		line = separatorStyle.Render(line)
	}
	b.WriteString(line + "\n")

	for r, row := range rows {
		if opts.RowNumbers {
			num := padLeft(strconv.Itoa(r+1), rowNumWidth)
			if !opts.NoColor {
				num = keyStyle.Render(num)
			}
			b.WriteString(num + sep)
		}
		cells := make([]string, len(columns))
		for i := range columns {
			var cell string
			if i < len(row) {
				cell = truncate(escapeScalarString(row[i]), widths[i])
			}
			if numeric[i] {
				cells[i] = padLeft(cell, widths[i])
			} else {
				cells[i] = padRight(cell, widths[i])
			}
			if !opts.NoColor {
				cells[i] = valueStyle.Render(cells[i])
			}
		}
		b.WriteString(strings.Join(cells, sep) + "\n")
	}
	return b.String()
}

func filterColumns(columns []string, rows [][]string, hidden []string) ([]string, [][]string) {
	if len(hidden) == 0 {
		return columns, rows
	}
	hiddenSet := make(map[string]bool, len(hidden))
	for _, h := range hidden {
		hiddenSet[h] = true
	}

	var keep []int
	visible := make([]string, 0, len(columns))
	for i, c := range columns {
		if !hiddenSet[c] {
			keep = append(keep, i)
			visible = append(visible, c)
		}
	}
	out := make([][]string, len(rows))
	for r, row := range rows {
		nr := make([]string, len(keep))
		for j, idx := range keep {
			if idx < len(row) {
				nr[j] = row[idx]
			}
		}
		out[r] = nr
	}
	return visible, out
}

// columnWidths starts from natural widths and narrows the widest column one
// cell at a time until the table fits.
func columnWidths(columns []string, rows [][]string, available int) []int {
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	for _, row := range rows {
		for i := range columns {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(escapeScalarString(row[i])))
			}
		}
	}
	for i := range widths {
		widths[i] = max(widths[i], 1)
	}

	budget := available - (len(columns)-1)*columnSepWidth
	for sum(widths) > budget {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func numericColumns(n int, rows [][]string) []bool {
	out := make([]bool, n)
	if len(rows) == 0 {
		return out
	}
	for i := range out {
		out[i] = true
		for _, row := range rows {
			if i >= len(row) || strings.TrimSpace(row[i]) == "" || !query.IsNumeric(row[i]) {
				out[i] = false
				break
			}
		}
	}
	return out
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
