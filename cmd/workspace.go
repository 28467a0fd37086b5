package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/formatter"
	"github.com/oakwood-commons/pathbench/pkg/core"
	"github.com/oakwood-commons/pathbench/pkg/logger"
	"github.com/oakwood-commons/pathbench/pkg/value"
)

var (
	reportFormat    string
	metricsFormat   string
	leaderboardSize int
	favoriteName    string
)

func ms(v float64) string {
	return value.FormatNumber(v) + " ms"
}

func timestamp(unixMillis int64) string {
	return time.UnixMilli(unixMillis).Local().Format("2006-01-02 15:04:05")
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize recorded query performance",
	Long: `stats summarizes the execution times recorded by run and export:
percentiles, insights about slow or growing queries, and a leaderboard.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			report, err := wb.Report()
			if err != nil {
				logger.FromContext(rootCtx).Error(err, "insight rules failed")
			}
			w := cmd.OutOrStdout()
			if runSettings().Output == "json" {
				return writeJSON(w, report)
			}

			s := report.Stats
			if s.Count == 0 {
				_, err := fmt.Fprintln(w, "no queries recorded yet")
				return err
			}
			rows := [][]string{
				{"queries", strconv.Itoa(s.Count)},
				{"mean", ms(s.Mean)},
				{"median", ms(s.Median)},
				{"min", ms(s.Min)},
				{"max", ms(s.Max)},
				{"p90", ms(s.P90)},
				{"p95", ms(s.P95)},
				{"p99", ms(s.P99)},
				{"std dev", ms(s.StdDev)},
			}
			fmt.Fprint(w, withNewline(formatter.RenderTableFitContent(rows, colorDisabled(), outputWidth())))

			if len(report.Insights) > 0 {
				fmt.Fprintln(w)
				for _, in := range report.Insights {
					fmt.Fprintf(w, "[%s] %s: %s\n", in.Severity, in.Title, in.Message)
					if in.Recommendation != "" {
						fmt.Fprintf(w, "    %s\n", in.Recommendation)
					}
				}
			}

			board := wb.Leaderboard(leaderboardSize)
			if len(board.Slowest) > 0 {
				fmt.Fprintln(w)
				lb := make([][]string, len(board.Slowest))
				for i, m := range board.Slowest {
					lb[i] = []string{strconv.Itoa(i + 1), m.Query, ms(m.ExecutionTime), strconv.Itoa(m.ResultCount)}
				}
				fmt.Fprint(w, withNewline(formatter.RenderColumnarTable(
					[]string{"RANK", "SLOWEST QUERY", "TIME", "RESULTS"}, lb,
					formatter.ColumnarOptions{NoColor: colorDisabled(), TotalWidth: outputWidth()},
				)))
			}
			return nil
		})
	},
}

var statsReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the performance report as markdown, HTML or JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			report, err := wb.Report()
			if err != nil {
				logger.FromContext(rootCtx).Error(err, "insight rules failed")
			}
			w := cmd.OutOrStdout()
			switch reportFormat {
			case "markdown", "md":
				_, err = fmt.Fprint(w, withNewline(report.Markdown()))
			case "html":
				_, err = w.Write(report.HTML())
			case "json":
				err = writeJSON(w, report)
			default:
				err = fmt.Errorf("unknown report format %q (expected markdown, html or json)", reportFormat)
			}
			return err
		})
	},
}

var statsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the recorded metrics as JSON or CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			content, filename, err := wb.ExportMetrics(metricsFormat)
			if err != nil {
				return err
			}
			logger.FromContext(rootCtx).V(1).Info("metrics exported", "filename", filename)
			_, err = fmt.Fprint(cmd.OutOrStdout(), withNewline(content))
			return err
		})
	},
}

var statsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget every recorded metric",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			if err := wb.ClearMetrics(rootCtx).Err(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "metrics cleared")
			return err
		})
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently executed queries, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			items := wb.History()
			w := cmd.OutOrStdout()
			if runSettings().Output == "json" {
				return writeJSON(w, items)
			}
			if len(items) == 0 {
				_, err := fmt.Fprintln(w, "no history yet")
				return err
			}
			rows := make([][]string, len(items))
			for i, it := range items {
				rows[i] = []string{timestamp(it.Timestamp), it.Query, ms(it.ExecutionTime), strconv.Itoa(it.ResultCount)}
			}
			_, err := fmt.Fprint(w, withNewline(formatter.RenderColumnarTable(
				[]string{"WHEN", "QUERY", "TIME", "RESULTS"}, rows,
				formatter.ColumnarOptions{NoColor: colorDisabled(), TotalWidth: outputWidth()},
			)))
			return err
		})
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Forget the query history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			if err := wb.ClearHistory(rootCtx).Err(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return err
		})
	},
}

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage saved queries",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return favoritesListCmd.RunE(cmd, args)
	},
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved queries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			favs := wb.Favorites()
			w := cmd.OutOrStdout()
			if runSettings().Output == "json" {
				return writeJSON(w, favs)
			}
			if len(favs) == 0 {
				_, err := fmt.Fprintln(w, "no favorites yet")
				return err
			}
			rows := make([][]string, len(favs))
			for i, f := range favs {
				rows[i] = []string{f.ID, f.Name, f.Query}
			}
			_, err := fmt.Fprint(w, withNewline(formatter.RenderColumnarTable(
				[]string{"ID", "NAME", "QUERY"}, rows,
				formatter.ColumnarOptions{NoColor: colorDisabled(), TotalWidth: outputWidth()},
			)))
			return err
		})
	},
}

var favoritesAddCmd = &cobra.Command{
	Use:   "add QUERY",
	Short: "Save a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := strings.TrimSpace(args[0])
		if q == "" {
			return fmt.Errorf("query is required")
		}
		return withWorkbench(func(wb *core.Workbench) error {
			fav, added := wb.AddFavorite(rootCtx, q, favoriteName)
			if !added {
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "already saved as %s\n", fav.ID)
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), fav.ID)
			return err
		})
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:     "remove ID",
	Aliases: []string{"rm"},
	Short:   "Delete a saved query",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkbench(func(wb *core.Workbench) error {
			if !wb.RemoveFavorite(rootCtx, args[0]) {
				return fmt.Errorf("no favorite with id %q", args[0])
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "removed")
			return err
		})
	},
}

func init() { //nolint:gochecknoinits
	statsCmd.Flags().IntVar(&leaderboardSize, "top", 5, "number of slowest queries to list")
	statsReportCmd.Flags().StringVar(&reportFormat, "format", "markdown", "report format: markdown|html|json")
	statsExportCmd.Flags().StringVar(&metricsFormat, "format", "json", "metrics export format: json|csv")
	statsCmd.AddCommand(statsReportCmd, statsExportCmd, statsClearCmd)

	historyCmd.AddCommand(historyClearCmd)

	favoritesAddCmd.Flags().StringVar(&favoriteName, "name", "", "display name for the saved query")
	favoritesCmd.AddCommand(favoritesListCmd, favoritesAddCmd, favoritesRemoveCmd)
}
