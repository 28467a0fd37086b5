// Package query turns visual builder state into JSONPath expressions and
// offers the reverse: a best-effort parse, a structural validator, and a
// plain-language description.
package query

import (
	"github.com/google/uuid"
)

// DefaultRootPath is used when the builder state carries no root.
const DefaultRootPath = "$"

// Operator is a filter comparison.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpLess         Operator = "<"
	OpGreater      Operator = ">"
	OpLessEqual    Operator = "<="
	OpGreaterEqual Operator = ">="
	OpContains     Operator = "contains"
	OpRegex        Operator = "regex"
	OpExists       Operator = "exists"
)

// Operators lists every supported operator in display order.
var Operators = []Operator{
	OpEqual, OpNotEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual,
	OpContains, OpRegex, OpExists,
}

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	for _, o := range Operators {
		if o == op {
			return true
		}
	}
	return false
}

// LogicalOperator joins a condition to the one before it.
type LogicalOperator string

const (
	And LogicalOperator = "AND"
	Or  LogicalOperator = "OR"
)

func (l LogicalOperator) symbol() string {
	if l == Or {
		return "||"
	}
	return "&&"
}

// FilterCondition is one leaf of a filter chain. Property is relative to
// the iterated item. Only conditions after the first carry a
// LogicalOperator.
type FilterCondition struct {
	ID              string          `json:"id"`
	Property        string          `json:"property"`
	Operator        Operator        `json:"operator"`
	Value           string          `json:"value"`
	LogicalOperator LogicalOperator `json:"logicalOperator,omitempty"`
}

// ArraySlice is an optional [start:end:step] selection. A slice with no
// bounds renders as [*].
type ArraySlice struct {
	Start *int `json:"start,omitempty"`
	End   *int `json:"end,omitempty"`
	Step  *int `json:"step,omitempty"`
}

// Mode is how the user is composing the query.
type Mode string

const (
	ModeVisual Mode = "visual"
	ModeText   Mode = "text"
)

// BuilderState is everything Build consumes. It is never mutated by this
// package.
type BuilderState struct {
	Mode             Mode              `json:"mode,omitempty"`
	RootPath         string            `json:"rootPath,omitempty"`
	Filters          []FilterCondition `json:"filters,omitempty"`
	ArraySlice       *ArraySlice       `json:"arraySlice,omitempty"`
	RecursiveDescent bool              `json:"recursiveDescent,omitempty"`
	SelectedPath     []string          `json:"selectedPath,omitempty"`
}

// ParseResult is what Parse can recover from query text. Root and selected
// path are not recovered; RootPath is always DefaultRootPath.
type ParseResult struct {
	RootPath         string            `json:"rootPath"`
	Filters          []FilterCondition `json:"filters"`
	HasArraySlice    bool              `json:"hasArraySlice"`
	RecursiveDescent bool              `json:"recursiveDescent"`
}

// NewID returns a fresh condition ID.
var NewID = uuid.NewString

// IntPtr is a convenience for building slices.
func IntPtr(i int) *int {
	return &i
}
