package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/mcpserver"
	"github.com/oakwood-commons/pathbench/internal/server"
	"github.com/oakwood-commons/pathbench/pkg/core"
	"github.com/oakwood-commons/pathbench/pkg/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the workbench over an HTTP JSON API",
	Long: `serve exposes schema analysis, query building, execution, search, export
and the analytics dashboard data under /api. Executed queries are recorded in
the same workspace the CLI uses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		addr := cfg.Server.Addr
		if cmd.Flags().Changed("addr") {
			addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withWorkbench(func(wb *core.Workbench) error {
			srv := server.New(wb,
				server.WithLogger(*logger.FromContext(rootCtx)),
				server.WithSchemaMaxDepth(cfg.Schema.MaxDepth),
				server.WithExportOptions(exportOptions()),
				server.WithCaseSensitiveSearch(cfg.Search.CaseSensitive),
			)
			return srv.ListenAndServe(ctx, addr)
		})
	},
}

var mcpCmd = &cobra.Command{
	Use:   "mcp [FILE]",
	Short: "Serve the workbench tools over MCP on stdio",
	Long: `mcp starts a Model Context Protocol server on stdin/stdout. FILE is the
dataset the analyze-schema, run-query and search-data tools work on; the
query building tools work without one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var data any
		if len(args) == 1 {
			loaded, err := loadInput(cmd, args[0])
			if err != nil {
				return err
			}
			data = loaded
		}
		ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withWorkbench(func(wb *core.Workbench) error {
			s := mcpserver.New(&mcpserver.Dependencies{
				Workbench:      wb,
				Data:           data,
				SchemaMaxDepth: cfg.Schema.MaxDepth,
				CaseSensitive:  cfg.Search.CaseSensitive,
				Logger:         *logger.FromContext(rootCtx),
			})
			return s.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
		})
	},
}

func init() { //nolint:gochecknoinits
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address (default from config)")
}
