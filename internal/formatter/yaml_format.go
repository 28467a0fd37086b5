package formatter

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// YAMLFormatOptions controls YAML output.
type YAMLFormatOptions struct {
	// Indent is the number of spaces per level (default 2).
	Indent int
	// LiteralBlockStrings renders multi-line strings as | blocks.
	LiteralBlockStrings bool
}

// FormatYAML renders v as YAML, keeping object key order.
func FormatYAML(v any, opts YAMLFormatOptions) (string, error) {
	node, err := toYAMLNode(v)
	if err != nil {
		return "", err
	}
	if opts.LiteralBlockStrings {
		applyLiteralStyle(node)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	indent := opts.Indent
	if indent <= 0 {
		indent = 2
	}
	enc.SetIndent(indent)
	if err := enc.Encode(node); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func toYAMLNode(v any) (*yaml.Node, error) {
	if entries, ok := value.Entries(v); ok {
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, e := range entries {
			child, err := toYAMLNode(e.Value)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Key}, child)
		}
		return n, nil
	}
	if items, ok := value.Elements(v); ok {
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range items {
			child, err := toYAMLNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		return n, nil
	}
	if f, ok := value.ToFloat(v); ok && value.KindOf(v) == value.KindNumber {
		return &yaml.Node{Kind: yaml.ScalarNode, Value: value.FormatNumber(f)}, nil
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

func applyLiteralStyle(n *yaml.Node) {
	if n == nil {
		return
	}
	if n.Kind == yaml.ScalarNode && n.Tag == "!!str" && strings.Contains(n.Value, "\n") {
		n.Style = yaml.LiteralStyle
	}
	for _, c := range n.Content {
		applyLiteralStyle(c)
	}
}
