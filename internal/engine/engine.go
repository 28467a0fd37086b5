// Package engine adapts a JSONPath implementation to the workbench. The
// workbench writes filters with single-quoted strings and /regex/flags
// literals; the adapter rewrites those into the engine's dialect before
// evaluating.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PaesslerAG/gval"
	"github.com/PaesslerAG/jsonpath"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// DefaultMaxDepth bounds the nesting of data searched by recursive descent.
const DefaultMaxDepth = 100

// Evaluator matches a path expression against data.
type Evaluator interface {
	Evaluate(ctx context.Context, path string, data any) (any, error)
}

// Option configures a JSONPath evaluator.
type Option func(*JSONPath)

// WithMaxDepth sets the nesting limit for recursive descent. Zero disables it.
func WithMaxDepth(depth int) Option {
	return func(e *JSONPath) {
		e.maxDepth = depth
	}
}

// JSONPath is the default Evaluator.
type JSONPath struct {
	lang     gval.Language
	maxDepth int
}

// New returns a JSONPath evaluator.
func New(opts ...Option) *JSONPath {
	e := &JSONPath{
		lang:     gval.Full(jsonpath.Language()),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate compiles path and runs it against a plain copy of data.
func (e *JSONPath) Evaluate(ctx context.Context, path string, data any) (any, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, ErrEmptyQuery
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Code: ErrCancelled, Message: "evaluation cancelled", Cause: err}
	}

	expr := Normalize(path)
	eval, err := e.lang.NewEvaluable(expr)
	if err != nil {
		return nil, &Error{Code: ErrInvalidPath, Message: fmt.Sprintf("invalid path %q", path), Cause: err}
	}

	if e.maxDepth > 0 && strings.Contains(path, "..") {
		if d := Depth(data); d > e.maxDepth {
			return nil, &Error{Code: ErrMaxDepthExceeded, Message: fmt.Sprintf("max depth %d exceeded (data depth %d)", e.maxDepth, d)}
		}
	}

	result, err := eval(ctx, value.ToPlain(data))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &Error{Code: ErrCancelled, Message: "evaluation cancelled", Cause: ctxErr}
		}
		return nil, &Error{Code: ErrEvaluation, Message: fmt.Sprintf("evaluating %q", path), Cause: err}
	}
	return result, nil
}

// CountResults reports how many results an evaluation produced: the length
// of an array, zero for nil, one for anything else.
func CountResults(result any) int {
	if result == nil {
		return 0
	}
	if items, ok := value.Elements(result); ok {
		return len(items)
	}
	return 1
}

// Depth returns the container nesting depth of v. Scalars are depth 0.
func Depth(v any) int {
	return depth(v, map[value.Ref]bool{})
}

func depth(v any, seen map[value.Ref]bool) int {
	ref, ok := value.Identity(v)
	if ok {
		if seen[ref] {
			return 0
		}
		seen[ref] = true
		defer delete(seen, ref)
	}
	deepest := 0
	if entries, isObj := value.Entries(v); isObj {
		for _, e := range entries {
			if d := depth(e.Value, seen); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	}
	if items, isArr := value.Elements(v); isArr {
		for _, item := range items {
			if d := depth(item, seen); d > deepest {
				deepest = d
			}
		}
		return deepest + 1
	}
	return 0
}

// Normalize rewrites workbench filter syntax into the engine dialect:
// 'single quoted' strings become "double quoted" ones, and a /pattern/flags
// literal on the right of =~ becomes a quoted pattern with inline flags.
func Normalize(path string) string {
	var b strings.Builder
	runes := []rune(path)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			end, _ := scanQuoted(runes, i, '"')
			b.WriteString(string(runes[i:end]))
			i = end - 1
		case r == '\'':
			end, closed := scanQuoted(runes, i, '\'')
			if !closed {
				b.WriteString(string(runes[i:]))
				i = end - 1
				continue
			}
			b.WriteString(strconv.Quote(unescapeQuote(runes[i+1:end-1], '\'')))
			i = end - 1
		case r == '/' && afterRegexOperator(runes, i):
			pattern, flags, end, ok := scanRegex(runes, i)
			if !ok {
				b.WriteRune(r)
				continue
			}
			if flags != "" {
				pattern = "(?" + flags + ")" + pattern
			}
			b.WriteString(strconv.Quote(pattern))
			i = end - 1
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// scanQuoted returns the index just past the closing quote. An
// unterminated string runs to the end of input.
func scanQuoted(runes []rune, start int, quote rune) (int, bool) {
	for j := start + 1; j < len(runes); j++ {
		if runes[j] == '\\' {
			j++
			continue
		}
		if runes[j] == quote {
			return j + 1, true
		}
	}
	return len(runes), false
}

func unescapeQuote(body []rune, quote rune) string {
	var b strings.Builder
	for j := 0; j < len(body); j++ {
		if body[j] == '\\' && j+1 < len(body) && body[j+1] == quote {
			continue
		}
		b.WriteRune(body[j])
	}
	return b.String()
}

func afterRegexOperator(runes []rune, i int) bool {
	j := i - 1
	for j >= 0 && (runes[j] == ' ' || runes[j] == '\t') {
		j--
	}
	return j >= 1 && runes[j] == '~' && runes[j-1] == '='
}

// scanRegex reads /pattern/flags starting at the opening slash. Only the
// i, m and s flags carry over; others are dropped.
func scanRegex(runes []rune, start int) (pattern, flags string, end int, ok bool) {
	var p strings.Builder
	j := start + 1
	for ; j < len(runes); j++ {
		if runes[j] == '\\' && j+1 < len(runes) && runes[j+1] == '/' {
			p.WriteRune('/')
			j++
			continue
		}
		if runes[j] == '/' {
			break
		}
		p.WriteRune(runes[j])
	}
	if j >= len(runes) {
		return "", "", 0, false
	}
	j++
	var f strings.Builder
	for ; j < len(runes) && isLetter(runes[j]); j++ {
		switch runes[j] {
		case 'i', 'm', 's':
			if !strings.ContainsRune(f.String(), runes[j]) {
				f.WriteRune(runes[j])
			}
		}
	}
	return p.String(), f.String(), j, true
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
