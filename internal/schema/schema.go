// Package schema infers a bounded-depth field tree from a JSON value.
package schema

import (
	"github.com/oakwood-commons/pathbench/pkg/value"
)

// DefaultMaxDepth is the depth bound used when none is configured.
const DefaultMaxDepth = 5

// FieldNode is one node of the inferred schema tree.
type FieldNode struct {
	Name          string      `json:"name"`
	Path          string      `json:"path"`
	Type          value.Kind  `json:"type"`
	Children      []FieldNode `json:"children,omitempty"`
	IsArray       bool        `json:"isArray,omitempty"`
	ArrayItemType value.Kind  `json:"arrayItemType,omitempty"`
}

// Result is the outcome of Analyze.
type Result struct {
	Fields      []FieldNode `json:"fields"`
	Depth       int         `json:"depth"`
	TotalFields int         `json:"totalFields"`
}

// Analyze builds the schema tree of v. Top-level fields sit at depth 1 and
// nodes deeper than maxDepth are not created. An array root is described by
// its first element only, with paths of the form $[*].key.
func Analyze(v any, maxDepth int) Result {
	a := &analyzer{maxDepth: maxDepth}
	base := "$"
	template := v
	if items, ok := value.Elements(v); ok {
		if len(items) == 0 {
			return Result{Fields: []FieldNode{}}
		}
		base = "$[*]"
		template = items[0]
	}
	fields := a.fields(template, base, 1)
	if fields == nil {
		fields = []FieldNode{}
	}
	return Result{Fields: fields, Depth: a.depth, TotalFields: a.total}
}

type analyzer struct {
	maxDepth int
	depth    int
	total    int
}

func (a *analyzer) fields(v any, base string, depth int) []FieldNode {
	if depth > a.maxDepth {
		return nil
	}
	entries, ok := value.Entries(v)
	if !ok {
		return nil
	}
	out := make([]FieldNode, 0, len(entries))
	for _, e := range entries {
		out = append(out, a.node(e.Key, base+"."+e.Key, e.Value, depth))
	}
	return out
}

func (a *analyzer) node(name, path string, v any, depth int) FieldNode {
	a.total++
	if depth > a.depth {
		a.depth = depth
	}
	n := FieldNode{Name: name, Path: path, Type: value.KindOf(v)}
	switch n.Type {
	case value.KindObject:
		n.Children = a.fields(v, path, depth+1)
	case value.KindArray:
		n.IsArray = true
		items, _ := value.Elements(v)
		if len(items) == 0 {
			break
		}
		n.ArrayItemType = value.KindOf(items[0])
		if n.ArrayItemType == value.KindObject {
			n.Children = a.fields(items[0], path+"[*]", depth+1)
		}
	case value.KindString, value.KindNumber, value.KindBoolean, value.KindNull:
	}
	return n
}

// Paths lists every node path depth-first in tree order.
func (r Result) Paths() []string {
	var out []string
	var walk func([]FieldNode)
	walk = func(nodes []FieldNode) {
		for _, n := range nodes {
			out = append(out, n.Path)
			walk(n.Children)
		}
	}
	walk(r.Fields)
	return out
}

// Find returns the node whose path equals path.
func (r Result) Find(path string) (FieldNode, bool) {
	var found *FieldNode
	var walk func([]FieldNode) bool
	walk = func(nodes []FieldNode) bool {
		for i := range nodes {
			if nodes[i].Path == path {
				found = &nodes[i]
				return true
			}
			if walk(nodes[i].Children) {
				return true
			}
		}
		return false
	}
	if walk(r.Fields) {
		return *found, true
	}
	return FieldNode{}, false
}
