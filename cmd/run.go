package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/cel"
	"github.com/oakwood-commons/pathbench/internal/export"
	"github.com/oakwood-commons/pathbench/internal/formatter"
	"github.com/oakwood-commons/pathbench/internal/limiter"
	"github.com/oakwood-commons/pathbench/internal/search"
	"github.com/oakwood-commons/pathbench/pkg/core"
	"github.com/oakwood-commons/pathbench/pkg/value"
)

var (
	queryText     string
	whereExpr     string
	limitRecords  int
	offsetRecords int
	tailRecords   int

	caseSensitive bool
	maxMatches    int

	exportFormat       string
	exportMaxDepth     int
	exportNoRowNumbers bool
	exportOutDir       string
	exportPrefix       string
)

func limiterConfig() limiter.Config {
	return limiter.Config{Limit: limitRecords, Offset: offsetRecords, Tail: tailRecords}
}

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Evaluate a JSONPath query and record its metrics",
	Long: `run evaluates a JSONPath query against a document, records the execution
time and result count in the workspace, and prints the results.

--where keeps only the array results for which a CEL expression is true;
each result is bound to '_'.`,
	Example: `  pathbench run store.json -q '$.store.book[*]'
  pathbench run store.json -q '$..book[*]' --where '_.price < 10' -o json
  cat store.json | pathbench run - -q '$..author' --tail 2`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		window := limiterConfig()
		if err := window.Validate(); err != nil {
			return fmt.Errorf("record limiting: %w", err)
		}
		data, err := loadInput(cmd, args[0])
		if err != nil {
			return err
		}
		return withWorkbench(func(wb *core.Workbench) error {
			exec, err := wb.Execute(rootCtx, queryText, data)
			if err != nil {
				return err
			}
			result := exec.Result
			if whereExpr != "" {
				if result, err = applyWhere(whereExpr, result); err != nil {
					return err
				}
			}
			if err := printResult(cmd.OutOrStdout(), window.Apply(result), runSettings().Output); err != nil {
				return err
			}
			if !runSettings().IsQuiet {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d results in %s ms\n", exec.ResultCount, value.FormatNumber(exec.Metric.ExecutionTime))
			}
			return nil
		})
	},
}

func applyWhere(expr string, result any) (any, error) {
	items, ok := value.Elements(result)
	if !ok {
		return nil, fmt.Errorf("--where needs an array result, got %s", value.KindOf(result))
	}
	ev, err := cel.NewEvaluator()
	if err != nil {
		return nil, err
	}
	kept, err := ev.Filter(expr, items)
	if err != nil {
		return nil, fmt.Errorf("--where: %w", err)
	}
	return kept, nil
}

var searchCmd = &cobra.Command{
	Use:   "search FILE TERM",
	Short: "Find keys and scalar values containing a term",
	Example: `  pathbench search store.json tolkien
  pathbench search store.json Price --case-sensitive -o json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		window := limiterConfig()
		if err := window.Validate(); err != nil {
			return fmt.Errorf("record limiting: %w", err)
		}
		data, err := loadInput(cmd, args[0])
		if err != nil {
			return err
		}
		term := args[1]
		cs := cfg.Search.CaseSensitive
		if cmd.Flags().Changed("case-sensitive") {
			cs = caseSensitive
		}
		matches := limiter.Slice(window, search.Search(data, term, search.Options{CaseSensitive: cs, MaxMatches: maxMatches}))

		w := cmd.OutOrStdout()
		if runSettings().Output == "json" {
			out := make([]*value.Object, len(matches))
			for i, m := range matches {
				out[i] = value.ObjectOf("path", m.PathString(), "matched", m.Matched, "value", m.Value)
			}
			return writeJSON(w, out)
		}
		for _, m := range matches {
			highlighted := formatter.HighlightSegments(search.Highlight(m.Matched, term, cs), colorDisabled())
			fmt.Fprintf(w, "%s  %s\n", m.PathString(), highlighted)
		}
		if !runSettings().IsQuiet {
			fmt.Fprintf(cmd.ErrOrStderr(), "%d matches\n", len(matches))
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export FILE",
	Short: "Export a document or query result as CSV or JSON",
	Long: `export flattens rows into CSV columns keyed by dot paths (or writes
indented JSON). With -q the query runs first and is recorded like run.
Arrays and objects deeper than --max-depth are written as JSON text.`,
	Example: `  pathbench export store.json -q '$.store.book[*]' > books.csv
  pathbench export store.json -q '$.store.book[*]' --format json --out-dir ./exports`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := loadInput(cmd, args[0])
		if err != nil {
			return err
		}
		input := data
		if queryText != "" {
			err = withWorkbench(func(wb *core.Workbench) error {
				exec, err := wb.Execute(rootCtx, queryText, data)
				input = exec.Result
				return err
			})
			if err != nil {
				return err
			}
		}

		opts := exportOptions()
		if cmd.Flags().Changed("max-depth") {
			opts.MaxDepth = exportMaxDepth
		}
		if exportNoRowNumbers {
			opts.IncludeRowNumbers = false
		}

		var content string
		switch exportFormat {
		case "csv":
			content, err = export.ToCSV(export.Rows(input), opts)
		case "json":
			content, err = export.ToJSON(input)
		default:
			return fmt.Errorf("unknown export format %q (expected csv or json)", exportFormat)
		}
		if err != nil {
			return err
		}

		if exportOutDir == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), withNewline(content))
			return err
		}
		if err := os.MkdirAll(exportOutDir, 0o750); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		path := filepath.Join(exportOutDir, export.Filename(exportPrefix, exportFormat, time.Now()))
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func addLimitFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&limitRecords, "limit", 0, "limit total number of records displayed")
	cmd.Flags().IntVar(&offsetRecords, "offset", 0, "skip the first N records")
	cmd.Flags().IntVar(&tailRecords, "tail", 0, "show the last N records (mutually exclusive with --limit; ignores --offset)")
}

func init() { //nolint:gochecknoinits
	runCmd.Flags().StringVarP(&queryText, "query", "q", "", "JSONPath query to evaluate")
	_ = runCmd.MarkFlagRequired("query")
	runCmd.Flags().StringVar(&whereExpr, "where", "", "CEL expression filtering array results, with the result bound to '_'")
	addLimitFlags(runCmd)

	searchCmd.Flags().BoolVar(&caseSensitive, "case-sensitive", false, "match case exactly (default from config)")
	searchCmd.Flags().IntVar(&maxMatches, "max", 0, "stop after N matches (0 = unlimited)")
	addLimitFlags(searchCmd)

	exportCmd.Flags().StringVarP(&queryText, "query", "q", "", "JSONPath query whose result is exported")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "export format: csv|json")
	exportCmd.Flags().IntVar(&exportMaxDepth, "max-depth", 5, "flattening depth for CSV columns (default from config)")
	exportCmd.Flags().BoolVar(&exportNoRowNumbers, "no-row-numbers", false, "omit the # row number column")
	exportCmd.Flags().StringVar(&exportOutDir, "out-dir", "", "write a timestamped file into this directory instead of stdout")
	exportCmd.Flags().StringVar(&exportPrefix, "prefix", "jsonpath-results", "file name prefix used with --out-dir")
}
