package formatter

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/oakwood-commons/pathbench/internal/schema"
	"github.com/oakwood-commons/pathbench/pkg/value"
)

const defaultMaxArrayInline = 3

// TreeOptions controls tree output formatting.
type TreeOptions struct {
	// NoValues hides values at leaf nodes (structure only).
	NoValues bool
	// MaxDepth limits tree depth (0 = unlimited).
	MaxDepth int
	// MaxArrayInline is max items to show inline for scalar arrays (default 3).
	MaxArrayInline int
	// MaxStringLen truncates inline strings; 0 means unlimited.
	MaxStringLen int
}

// FormatAsTree renders data as an ASCII tree. Objects keep their key order.
func FormatAsTree(node any, opts TreeOptions) string {
	if opts.MaxArrayInline == 0 {
		opts.MaxArrayInline = defaultMaxArrayInline
	}
	tree := treeprint.New()
	switch {
	case value.IsContainer(node):
		addChildren(tree, node, opts, 0)
	default:
		tree.AddNode(scalarLabel(node, opts))
	}
	return tree.String()
}

func addChildren(branch treeprint.Tree, node any, opts TreeOptions, depth int) {
	if entries, ok := value.Entries(node); ok {
		for _, e := range entries {
			addNodeForValue(branch, e.Key, e.Value, opts, depth)
		}
		return
	}
	items, _ := value.Elements(node)
	for i, v := range items {
		addNodeForValue(branch, fmt.Sprintf("[%d]", i), v, opts, depth)
	}
}

func addNodeForValue(branch treeprint.Tree, key string, v any, opts TreeOptions, depth int) {
	if opts.MaxDepth > 0 && depth >= opts.MaxDepth {
		branch.AddNode(key + ": ...")
		return
	}
	switch value.KindOf(v) {
	case value.KindObject:
		entries, _ := value.Entries(v)
		if len(entries) == 0 {
			branch.AddNode(keyLabel(key, "{}", opts))
			return
		}
		addChildren(branch.AddBranch(key), v, opts, depth+1)
	case value.KindArray:
		items, _ := value.Elements(v)
		switch {
		case len(items) == 0:
			branch.AddNode(keyLabel(key, "[]", opts))
		case isScalarArray(items) && len(items) <= opts.MaxArrayInline:
			branch.AddNode(keyLabel(key, value.String(value.ToPlain(items)), opts))
		default:
			addChildren(branch.AddBranch(fmt.Sprintf("%s [%d]", key, len(items))), v, opts, depth+1)
		}
	default:
		branch.AddNode(keyLabel(key, scalarLabel(v, opts), opts))
	}
}

func keyLabel(key, val string, opts TreeOptions) string {
	if opts.NoValues {
		return key
	}
	return key + ": " + val
}

func scalarLabel(v any, opts TreeOptions) string {
	s := Stringify(v)
	if _, ok := v.(string); ok {
		s = fmt.Sprintf("%q", truncate(s, opts.MaxStringLen))
	}
	if v == nil {
		s = "null"
	}
	return s
}

func isScalarArray(items []any) bool {
	for _, v := range items {
		if value.IsContainer(v) {
			return false
		}
	}
	return true
}

// SchemaTree renders an inferred schema as a tree of "name (type)" labels,
// with each node's path appended when showPaths is set.
func SchemaTree(fields []schema.FieldNode, showPaths bool) string {
	tree := treeprint.NewWithRoot("$")
	addSchemaFields(tree, fields, showPaths)
	return tree.String()
}

func addSchemaFields(branch treeprint.Tree, fields []schema.FieldNode, showPaths bool) {
	for _, f := range fields {
		label := f.Name + " (" + FieldType(f) + ")"
		if showPaths {
			label += "  " + f.Path
		}
		if len(f.Children) > 0 {
			addSchemaFields(branch.AddBranch(label), f.Children, showPaths)
			continue
		}
		branch.AddNode(label)
	}
}

// FieldType renders a field's type, spelling arrays as array<item>.
func FieldType(f schema.FieldNode) string {
	if f.IsArray && f.ArrayItemType != "" {
		return "array<" + string(f.ArrayItemType) + ">"
	}
	return string(f.Type)
}

// SchemaRows flattens the schema into [path, type] rows in tree order.
func SchemaRows(fields []schema.FieldNode) [][]string {
	var rows [][]string
	var walk func([]schema.FieldNode)
	walk = func(nodes []schema.FieldNode) {
		for _, f := range nodes {
			rows = append(rows, []string{f.Path, FieldType(f)})
			walk(f.Children)
		}
	}
	walk(fields)
	return rows
}
