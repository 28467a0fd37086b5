package formatter

import (
	"fmt"
	"strings"

	"github.com/oakwood-commons/pathbench/internal/schema"
)

// MermaidOptions controls Mermaid diagram output formatting.
type MermaidOptions struct {
	// Direction sets the diagram direction: TD, LR, BT or RL. Default is TD.
	Direction string
	// ShowPaths appends each field's path to its label.
	ShowPaths bool
}

type mermaidBuilder struct {
	lines  []string
	nodeID int
	opts   MermaidOptions
}

// SchemaMermaid renders an inferred schema as a Mermaid flowchart rooted at $.
func SchemaMermaid(fields []schema.FieldNode, opts MermaidOptions) string {
	if opts.Direction == "" {
		opts.Direction = "TD"
	}
	b := &mermaidBuilder{
		lines: []string{"graph " + opts.Direction},
		opts:  opts,
	}
	rootID := b.nextID()
	b.addNode(rootID, "$")
	b.addFields(rootID, fields)
	return strings.Join(b.lines, "\n") + "\n"
}

func (b *mermaidBuilder) nextID() string {
	id := fmt.Sprintf("n%d", b.nodeID)
	b.nodeID++
	return id
}

func (b *mermaidBuilder) addNode(id, label string) {
	b.lines = append(b.lines, fmt.Sprintf("    %s[%q]", id, escapeMermaidLabel(label)))
}

func (b *mermaidBuilder) addEdge(fromID, toID string) {
	b.lines = append(b.lines, fmt.Sprintf("    %s --> %s", fromID, toID))
}

func (b *mermaidBuilder) addFields(parentID string, fields []schema.FieldNode) {
	for _, f := range fields {
		id := b.nextID()
		label := f.Name + ": " + FieldType(f)
		if b.opts.ShowPaths {
			label += " " + f.Path
		}
		b.addNode(id, label)
		b.addEdge(parentID, id)
		b.addFields(id, f.Children)
	}
}

// escapeMermaidLabel swaps double quotes for single quotes and drops line breaks.
func escapeMermaidLabel(label string) string {
	label = strings.ReplaceAll(label, `"`, `'`)
	label = strings.ReplaceAll(label, "\n", " ")
	return strings.ReplaceAll(label, "\r", "")
}
