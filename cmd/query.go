package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/formatter"
	"github.com/oakwood-commons/pathbench/internal/query"
)

var (
	buildRoot      string
	buildSelect    []string
	buildFilters   []string
	buildSlice     string
	buildRecursive bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a JSONPath query from a root, fields, filters and a slice",
	Long: `build assembles a JSONPath expression the way the visual builder does.

Filters take the form [and:|or:]PROPERTY OPERATOR [VALUE]. Operators are
==, !=, <, >, <=, >=, contains, regex and exists. Values that read as numbers
are emitted bare; everything else is quoted.`,
	Example: `  pathbench build --select store,book --slice '*' --filter 'price < 10' --filter 'or:title contains sword'
  pathbench build --select author --recursive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		var filters []query.FilterCondition
		for _, raw := range buildFilters {
			c, err := parseFilterFlag(raw)
			if err != nil {
				return err
			}
			filters = query.AddFilter(filters, c)
		}
		var slice *query.ArraySlice
		if cmd.Flags().Changed("slice") {
			s, err := query.ParseSlice(buildSlice)
			if err != nil {
				return err
			}
			slice = s
		}
		q := query.Build(buildRoot, buildSelect, filters, slice, buildRecursive)
		if runSettings().Output == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]any{
				"query":       q,
				"valid":       query.IsValid(q),
				"description": query.Describe(q),
			})
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), q)
		return err
	},
}

// parseFilterFlag reads "[and:|or:]property op [value]".
func parseFilterFlag(raw string) (query.FilterCondition, error) {
	text := strings.TrimSpace(raw)
	logical := query.And
	switch lower := strings.ToLower(text); {
	case strings.HasPrefix(lower, "or:"):
		logical, text = query.Or, text[3:]
	case strings.HasPrefix(lower, "and:"):
		text = text[4:]
	}
	text = strings.TrimSpace(text)

	for _, op := range []query.Operator{query.OpContains, query.OpRegex} {
		if prop, val, ok := strings.Cut(text, " "+string(op)+" "); ok {
			return filterCondition(prop, op, val, logical)
		}
	}
	if prop, ok := strings.CutSuffix(text, " "+string(query.OpExists)); ok {
		return filterCondition(prop, query.OpExists, "", logical)
	}
	// Two-character operators first so "<=" is not read as "<".
	for _, op := range []query.Operator{query.OpLessEqual, query.OpGreaterEqual, query.OpEqual, query.OpNotEqual, query.OpLess, query.OpGreater} {
		if prop, val, ok := strings.Cut(text, string(op)); ok {
			return filterCondition(prop, op, val, logical)
		}
	}
	return query.FilterCondition{}, fmt.Errorf("invalid filter %q: expected PROPERTY OPERATOR VALUE", raw)
}

func filterCondition(prop string, op query.Operator, val string, logical query.LogicalOperator) (query.FilterCondition, error) {
	prop = strings.TrimSpace(prop)
	if prop == "" {
		return query.FilterCondition{}, fmt.Errorf("filter with operator %s has no property", op)
	}
	val = strings.Trim(strings.TrimSpace(val), `'"`)
	c := query.NewCondition(prop, op, val)
	c.LogicalOperator = logical
	return c, nil
}

var parseCmd = &cobra.Command{
	Use:   "parse QUERY",
	Short: "Recover filter conditions and structure from a JSONPath query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parsed := query.Parse(args[0])
		if runSettings().Output == "json" {
			return writeJSON(cmd.OutOrStdout(), parsed)
		}
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "root:       %s\n", parsed.RootPath)
		fmt.Fprintf(w, "recursive:  %t\n", parsed.RecursiveDescent)
		fmt.Fprintf(w, "slice:      %t\n", parsed.HasArraySlice)
		if len(parsed.Filters) == 0 {
			_, err := fmt.Fprintln(w, "filters:    none")
			return err
		}
		rows := make([][]string, len(parsed.Filters))
		for i, f := range parsed.Filters {
			rows[i] = []string{string(f.LogicalOperator), f.Property, string(f.Operator), f.Value}
		}
		_, err := fmt.Fprint(w, withNewline(formatter.RenderColumnarTable(
			[]string{"JOIN", "PROPERTY", "OPERATOR", "VALUE"}, rows,
			formatter.ColumnarOptions{NoColor: colorDisabled(), TotalWidth: outputWidth()},
		)))
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate QUERY",
	Short: "Check that a JSONPath query is structurally well formed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		valid := query.IsValid(args[0])
		if runSettings().Output == "json" {
			return writeJSON(cmd.OutOrStdout(), map[string]bool{"valid": valid})
		}
		if !valid {
			return fmt.Errorf("invalid JSONPath: %s", args[0])
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), "valid")
		return err
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe QUERY",
	Short: "Explain a JSONPath query in plain language",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), query.Describe(args[0]))
		return err
	},
}

func init() { //nolint:gochecknoinits
	buildCmd.Flags().StringVar(&buildRoot, "root", query.DefaultRootPath, "path the query starts from")
	buildCmd.Flags().StringSliceVar(&buildSelect, "select", nil, "field names to descend into, in order")
	buildCmd.Flags().StringArrayVar(&buildFilters, "filter", nil, "filter condition [and:|or:]PROPERTY OPERATOR [VALUE]; repeatable")
	buildCmd.Flags().StringVar(&buildSlice, "slice", "", "array slice: '*', start:end or start:end:step")
	buildCmd.Flags().BoolVar(&buildRecursive, "recursive", false, "use recursive descent (..) before the selected fields")
}
