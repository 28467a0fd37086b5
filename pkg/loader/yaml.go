package loader

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/pathbench/pkg/value"
)

// loadYAML parses a single YAML document and wraps it in []any.
func loadYAML(input string) ([]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(input), &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	data, err := yamlNodeToValue(&doc, 0)
	if err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return []any{data}, nil
}

// loadMultiDocYAML parses YAML with multiple documents (separated by ---).
// Empty documents are skipped.
func loadMultiDocYAML(input string) ([]any, error) {
	var results []any
	decoder := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc yaml.Node
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		data, err := yamlNodeToValue(&doc, 0)
		if err != nil {
			return nil, fmt.Errorf("invalid multi-document YAML: %w", err)
		}
		if data != nil {
			results = append(results, data)
		}
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in multi-document YAML")
	}
	return results, nil
}

// yamlNodeToValue walks the node tree so mappings keep document order.
func yamlNodeToValue(n *yaml.Node, depth int) (any, error) {
	if n == nil {
		return nil, nil
	}
	if depth > maxNesting {
		return nil, fmt.Errorf("YAML nesting exceeds %d levels", maxNesting)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlNodeToValue(n.Content[0], depth)
	case yaml.MappingNode:
		obj := value.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valNode := n.Content[i], n.Content[i+1]
			val, err := yamlNodeToValue(valNode, depth+1)
			if err != nil {
				return nil, err
			}
			if keyNode.Tag == "!!merge" {
				mergeInto(obj, val)
				continue
			}
			obj.Set(yamlKey(keyNode), val) // last one wins on duplicate keys
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := yamlNodeToValue(c, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.AliasNode:
		return yamlNodeToValue(n.Alias, depth+1)
	case yaml.ScalarNode:
		var val any
		if err := n.Decode(&val); err != nil {
			return n.Value, nil
		}
		return value.Normalize(val), nil
	}
	return nil, nil
}

func yamlKey(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	v, err := yamlNodeToValue(n, 0)
	if err != nil {
		return n.Value
	}
	return value.String(v)
}

// mergeInto applies a YAML merge key. Keys already present win.
func mergeInto(dst *value.Object, src any) {
	if items, ok := src.([]any); ok {
		for _, item := range items {
			mergeInto(dst, item)
		}
		return
	}
	obj, ok := src.(*value.Object)
	if !ok {
		return
	}
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if _, exists := dst.Get(pair.Key); !exists {
			dst.Set(pair.Key, pair.Value)
		}
	}
}
