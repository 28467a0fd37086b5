package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/oakwood-commons/pathbench/internal/export"
	"github.com/oakwood-commons/pathbench/internal/formatter"
	"github.com/oakwood-commons/pathbench/internal/schema"
	"github.com/oakwood-commons/pathbench/pkg/loader"
	"github.com/oakwood-commons/pathbench/pkg/settings"
	"github.com/oakwood-commons/pathbench/pkg/value"
)

// runSettings returns the settings of the current invocation, or the CLI
// defaults before the root command has run.
func runSettings() *settings.Run {
	if rootCtx != nil {
		if run, ok := settings.FromContext(rootCtx); ok {
			return run
		}
	}
	return settings.NewCliParams()
}

func colorDisabled() bool {
	return runSettings().NoColor || !formatter.IsTerminal(os.Stdout)
}

func outputWidth() int {
	if w := runSettings().Width; w > 0 {
		return w
	}
	return formatter.TerminalWidth()
}

func exportOptions() export.Options {
	return export.Options{MaxDepth: cfg.Export.MaxDepth, IncludeRowNumbers: cfg.Export.IncludeRowNumbers}
}

// printResult writes v in the requested output format.
func printResult(w io.Writer, v any, format string) error {
	var (
		out string
		err error
	)
	switch format {
	case "", "table":
		out = renderTable(v)
	case "json":
		return writeJSON(w, v)
	case "yaml":
		out, err = formatter.FormatYAML(v, formatter.YAMLFormatOptions{Indent: 2, LiteralBlockStrings: true})
	case "toml":
		out, err = formatTOML(v)
	case "tree":
		out = formatter.FormatAsTree(v, formatter.TreeOptions{MaxStringLen: outputWidth() / 2})
	case "csv":
		out, err = export.ToCSV(export.Rows(v), exportOptions())
	case "raw":
		out, err = formatRaw(v)
	default:
		return fmt.Errorf("unknown output format %q (expected table, json, yaml, toml, tree, csv or raw)", format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, withNewline(out))
	return err
}

// renderTable prints scalars plain, homogeneous arrays as columns and
// everything else as KEY/VALUE rows.
func renderTable(v any) string {
	if !value.IsContainer(v) {
		return value.String(v)
	}
	if columns, rows := schema.Columns(v); columns != nil {
		return formatter.RenderColumnarTable(columns, rows, formatter.ColumnarOptions{
			NoColor:    colorDisabled(),
			TotalWidth: outputWidth(),
		})
	}
	return formatter.RenderTableFitContent(formatter.Rows(v), colorDisabled(), outputWidth())
}

func formatTOML(v any) (string, error) {
	if !value.IsObject(v) {
		return "", fmt.Errorf("toml output needs an object, got %s", value.KindOf(v))
	}
	b, err := toml.Marshal(value.ToPlain(v))
	if err != nil {
		return "", fmt.Errorf("encode TOML: %w", err)
	}
	return string(b), nil
}

func formatRaw(v any) (string, error) {
	if !value.IsContainer(v) {
		return value.String(v), nil
	}
	b, err := value.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeJSON(w io.Writer, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// toValue converts a Go struct into the ordered value model via its JSON
// encoding so it can go through the YAML and tree formatters.
func toValue(v any) (any, error) {
	b, err := value.Marshal(v)
	if err != nil {
		return nil, err
	}
	return loader.LoadRootBytes(b)
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
