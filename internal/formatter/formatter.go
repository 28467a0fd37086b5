// Package formatter renders workbench values for the terminal: KEY/VALUE
// tables, columnar tables, trees, Mermaid diagrams and YAML.
package formatter

import (
	"fmt"
	"image/color"
	"os"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/oakwood-commons/pathbench/internal/search"
	"github.com/oakwood-commons/pathbench/pkg/value"
)

var (
	defaultHeaderFG   = lipgloss.Color("12")
	defaultHeaderBG   = lipgloss.Color("236")
	defaultKeyColor   = lipgloss.Color("14")
	defaultValueColor = lipgloss.Color("248")
	defaultSeparator  = lipgloss.Color("240")
	defaultMatchColor = lipgloss.Color("11")

	headerStyle    lipgloss.Style
	keyStyle       lipgloss.Style
	valueStyle     lipgloss.Style
	separatorStyle lipgloss.Style
	matchStyle     lipgloss.Style
)

// TableColors controls the rendered colors for the formatter table.
// Empty fields fall back to the defaults (ANSI 256 codes).
type TableColors struct {
	HeaderFG       color.Color
	HeaderBG       color.Color
	KeyColor       color.Color
	ValueColor     color.Color
	SeparatorColor color.Color
	MatchColor     color.Color
}

func applyTableTheme(tc TableColors) {
	pick := func(c, def color.Color) color.Color {
		if c == nil {
			return def
		}
		return c
	}
	headerStyle = lipgloss.NewStyle().Bold(true).
		Foreground(pick(tc.HeaderFG, defaultHeaderFG)).
		Background(pick(tc.HeaderBG, defaultHeaderBG))
	keyStyle = lipgloss.NewStyle().Foreground(pick(tc.KeyColor, defaultKeyColor))
	valueStyle = lipgloss.NewStyle().Foreground(pick(tc.ValueColor, defaultValueColor))
	separatorStyle = lipgloss.NewStyle().Foreground(pick(tc.SeparatorColor, defaultSeparator))
	matchStyle = lipgloss.NewStyle().Bold(true).Foreground(pick(tc.MatchColor, defaultMatchColor))
}

// SetTableTheme overrides the global table styles.
func SetTableTheme(tc TableColors) {
	applyTableTheme(tc)
}

//nolint:gochecknoinits // initialize default table theme for package consumers
func init() {
	applyTableTheme(TableColors{})
}

// Stringify returns a single-line rendering: strings as-is with line breaks
// escaped, containers as compact JSON, nil as "".
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return escapeScalarString(s)
	}
	return escapeScalarString(value.String(v))
}

// escapeScalarString flattens line breaks so table rows stay single-line.
func escapeScalarString(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.ReplaceAll(s, "\n", "\\n")
}

// truncate shortens s to maxLen display cells, ending in "..." when room allows.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || runewidth.StringWidth(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return runewidth.Truncate(s, maxLen, "")
	}
	return runewidth.Truncate(s, maxLen, "...")
}

// padRight pads s with spaces to width display cells, truncating if wider.
func padRight(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.FillRight(s, width)
}

// padLeft right-aligns s within width display cells.
func padLeft(s string, width int) string {
	if runewidth.StringWidth(s) > width {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.FillLeft(s, width)
}

// TerminalWidth returns the stdout width, or 120 when stdout is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 120
	}
	return width
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Rows converts a node into KEY/VALUE pairs: object entries in order, array
// elements as [i], and a scalar as a single (value) row.
func Rows(node any) [][]string {
	if entries, ok := value.Entries(node); ok {
		rows := make([][]string, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, []string{e.Key, Stringify(e.Value)})
		}
		return rows
	}
	if items, ok := value.Elements(node); ok {
		rows := make([][]string, 0, len(items))
		for i, v := range items {
			rows = append(rows, []string{fmt.Sprintf("[%d]", i), Stringify(v)})
		}
		return rows
	}
	return [][]string{{"(value)", Stringify(node)}}
}

// RenderTable prints a KEY/VALUE table for node.
// keyColWidth: width for KEY column (0 = 30).
// valueColWidth: width for VALUE column (0 or < 20 = 20).
func RenderTable(node any, noColor bool, keyColWidth, valueColWidth int) string {
	return RenderRows(Rows(node), noColor, keyColWidth, valueColWidth)
}

// RenderRows prints a KEY/VALUE table for precomputed [key, value] rows.
func RenderRows(rows [][]string, noColor bool, keyColWidth, valueColWidth int) string {
	const (
		sepWidth      = 2
		minValueWidth = 20
	)
	sep := strings.Repeat(" ", sepWidth)

	keyWidth := keyColWidth
	if keyWidth <= 0 {
		keyWidth = 30
	}
	valueWidth := max(valueColWidth, minValueWidth)

	var b strings.Builder
	headerKey := padRight("KEY", keyWidth)
	headerValue := padRight("VALUE", valueWidth)
	separator := strings.Repeat("─", keyWidth+sepWidth+valueWidth)
	if !noColor {
		headerKey = headerStyle.Render(headerKey)
		headerValue = headerStyle.Render(headerValue)
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(headerKey + sep + headerValue + "\n")
	b.WriteString(separator + "\n")

	for _, row := range rows {
		var key, val string
		if len(row) > 0 {
			key = row[0]
		}
		if len(row) > 1 {
			val = row[1]
		}
		keyStr := padRight(truncate(key, keyWidth), keyWidth)
		valStr := padRight(truncate(val, valueWidth), valueWidth)
		if !noColor {
			keyStr = keyStyle.Render(keyStr)
			valStr = valueStyle.Render(valStr)
		}
		b.WriteString(keyStr + sep + valStr + "\n")
	}
	return b.String()
}

// RenderTableFitContent renders a KEY/VALUE table sized to its content,
// capped at maxWidth (0 = uncapped). The key column gets at most 30% when
// the content has to shrink.
func RenderTableFitContent(rows [][]string, noColor bool, maxWidth int) string {
	const sepWidth = 2
	keyWidth, valueWidth := 3, 5
	for _, row := range rows {
		if len(row) > 0 {
			keyWidth = max(keyWidth, runewidth.StringWidth(row[0]))
		}
		if len(row) > 1 {
			valueWidth = max(valueWidth, runewidth.StringWidth(row[1]))
		}
	}
	if maxWidth > 0 && keyWidth+sepWidth+valueWidth > maxWidth {
		available := max(maxWidth-sepWidth, 10)
		keyWidth = min(keyWidth, max(available*30/100, 5))
		valueWidth = max(available-keyWidth, 5)
	}
	return RenderRows(rows, noColor, keyWidth, valueWidth)
}

// HighlightSegments renders text with matched segments emphasised. With
// noColor the matches are wrapped in brackets instead.
func HighlightSegments(parts []search.Segment, noColor bool) string {
	var b strings.Builder
	for _, p := range parts {
		switch {
		case !p.Match:
			b.WriteString(p.Text)
		case noColor:
			b.WriteString("[" + p.Text + "]")
		default:
			b.WriteString(matchStyle.Render(p.Text))
		}
	}
	return b.String()
}
