package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/formatter"
	"github.com/oakwood-commons/pathbench/internal/schema"
)

var (
	schemaMaxDepth   int
	schemaShowPaths  bool
	mermaidDirection string
)

var schemaCmd = &cobra.Command{
	Use:   "schema FILE",
	Short: "Infer the field tree of a document",
	Long: `schema walks a document and reports every field with its JSONPath path and
JSON type. An array root is described by its first element.`,
	Example: `  pathbench schema store.json
  pathbench schema store.json -o tree --paths
  pathbench schema store.json -o mermaid --mermaid-direction LR`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loadInput(cmd, args[0])
		if err != nil {
			return err
		}
		depth := cfg.Schema.MaxDepth
		if cmd.Flags().Changed("max-depth") {
			depth = schemaMaxDepth
		}
		if depth < 1 {
			return fmt.Errorf("--max-depth must be at least 1, got %d", depth)
		}
		return printSchema(cmd.OutOrStdout(), schema.Analyze(data, depth), runSettings().Output)
	},
}

func printSchema(w io.Writer, result schema.Result, format string) error {
	var out string
	switch format {
	case "", "table":
		rows := formatter.SchemaRows(result.Fields)
		columns := []string{"PATH", "TYPE"}
		out = formatter.RenderColumnarTable(columns, rows, formatter.ColumnarOptions{NoColor: colorDisabled(), TotalWidth: outputWidth()})
		out = withNewline(out) + fmt.Sprintf("%d fields, depth %d\n", result.TotalFields, result.Depth)
	case "tree":
		out = formatter.SchemaTree(result.Fields, schemaShowPaths)
	case "mermaid":
		out = formatter.SchemaMermaid(result.Fields, formatter.MermaidOptions{Direction: mermaidDirection, ShowPaths: schemaShowPaths})
	case "json":
		return writeJSON(w, result)
	case "yaml":
		v, err := toValue(result)
		if err != nil {
			return err
		}
		return printResult(w, v, "yaml")
	case "raw":
		out = strings.Join(result.Paths(), "\n")
	default:
		return fmt.Errorf("unknown schema output %q (expected table, tree, mermaid, json, yaml or raw)", format)
	}
	_, err := io.WriteString(w, withNewline(out))
	return err
}

func init() { //nolint:gochecknoinits
	schemaCmd.Flags().IntVar(&schemaMaxDepth, "max-depth", 5, "deepest field level to report (default from config)")
	schemaCmd.Flags().BoolVar(&schemaShowPaths, "paths", false, "show JSONPath paths in tree and mermaid output")
	schemaCmd.Flags().StringVar(&mermaidDirection, "mermaid-direction", "TD", "Mermaid diagram direction: TD, LR, BT, RL")
}
