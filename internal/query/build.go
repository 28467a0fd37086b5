package query

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*([eE][+-]?\d+)?|\.\d+([eE][+-]?\d+)?)$`)
	radixLiteral   = regexp.MustCompile(`^0([xX][0-9a-fA-F]+|[bB][01]+|[oO][0-7]+)$`)
)

// Build synthesizes a path expression. It never fails; the empty state
// yields "$".
func Build(rootPath string, selectedPath []string, filters []FilterCondition, slice *ArraySlice, recursive bool) string {
	if rootPath == "" {
		rootPath = DefaultRootPath
	}
	var b strings.Builder
	b.WriteString(rootPath)

	if len(selectedPath) > 0 {
		if recursive {
			b.WriteString("..")
		}
		cur := b.String()
		if strings.HasSuffix(cur, "$") || !strings.HasSuffix(cur, "..") {
			b.WriteByte('.')
		}
		b.WriteString(strings.Join(selectedPath, "."))
	}

	if slice != nil {
		b.WriteString(slice.String())
	}

	if len(filters) > 0 {
		b.WriteString(BuildFilter(filters))
	}
	return b.String()
}

// BuildState is Build over a BuilderState.
func BuildState(s BuilderState) string {
	return Build(s.RootPath, s.SelectedPath, s.Filters, s.ArraySlice, s.RecursiveDescent)
}

// String renders the slice as [start:end:step], [start:end] or [*].
func (s ArraySlice) String() string {
	if s.Start == nil && s.End == nil && s.Step == nil {
		return "[*]"
	}
	bound := func(p *int) string {
		if p == nil {
			return ""
		}
		return strconv.Itoa(*p)
	}
	if s.Step != nil {
		return "[" + bound(s.Start) + ":" + bound(s.End) + ":" + bound(s.Step) + "]"
	}
	return "[" + bound(s.Start) + ":" + bound(s.End) + "]"
}

// BuildFilter renders a [?(...)] clause, or "" for an empty chain.
func BuildFilter(filters []FilterCondition) string {
	if len(filters) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("[?(")
	for i, f := range filters {
		if i > 0 {
			b.WriteString(" " + f.LogicalOperator.symbol() + " ")
		}
		b.WriteString(renderCondition(f))
	}
	b.WriteString(")]")
	return b.String()
}

func renderCondition(f FilterCondition) string {
	ref := "@." + f.Property
	switch f.Operator {
	case OpContains:
		return ref + " =~ /" + f.Value + "/i"
	case OpRegex:
		return ref + " =~ /" + f.Value + "/"
	case OpExists:
		return ref
	case OpEqual, OpNotEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
	}
	return ref + " " + string(f.Operator) + " " + literal(f.Value)
}

// literal renders v bare when it reads as a number, otherwise single-quoted.
func literal(v string) string {
	if IsNumeric(v) {
		return v
	}
	return "'" + v + "'"
}

// IsNumeric reports whether v reads as a number the way JavaScript's
// Number(v) does: decimal literals with optional sign and exponent,
// Infinity, unsigned 0x, 0o and 0b integers, and blank strings (which
// read as 0).
func IsNumeric(v string) bool {
	s := strings.TrimSpace(v)
	switch s {
	case "":
		return true
	case "Infinity", "+Infinity", "-Infinity":
		return true
	}
	return decimalLiteral.MatchString(s) || radixLiteral.MatchString(s)
}

// ParseSlice reads "start:end[:step]" or "*" into an ArraySlice. Empty
// bounds stay nil.
func ParseSlice(text string) (*ArraySlice, error) {
	text = strings.Trim(strings.TrimSpace(text), "[]")
	if text == "*" || text == "" {
		return &ArraySlice{}, nil
	}
	parts := strings.Split(text, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return nil, fmt.Errorf("invalid slice %q: want start:end or start:end:step", text)
	}
	bounds := make([]*int, 3)
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid slice bound %q: %w", p, err)
		}
		bounds[i] = IntPtr(n)
	}
	s := &ArraySlice{Start: bounds[0], End: bounds[1], Step: bounds[2]}
	if len(parts) == 3 && s.Step == nil {
		s.Step = IntPtr(1)
	}
	return s, nil
}
