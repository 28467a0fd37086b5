package cmd

import (
	"context"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/config"
	"github.com/oakwood-commons/pathbench/pkg/logger"
	"github.com/oakwood-commons/pathbench/pkg/settings"
)

var (
	configFile  string
	debug       bool
	noColor     bool
	output      string
	storeDriver string
	storePath   string
	width       int
	quiet       bool

	rootCtx = context.Background()
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   settings.CliBinaryName,
	Short: "JSONPath workbench: schema, query building, search, export and query analytics",
	Long: `pathbench analyzes JSON, YAML and TOML documents, builds and explains
JSONPath queries, runs them while recording execution metrics, and reports
on how your queries perform over time.`,
	Example: `  pathbench schema store.json -o tree
  pathbench run store.json -q '$.book[?(@.price < 10)].title'
  pathbench search store.json tolkien
  pathbench export store.json -q '$.book[*]' > books.csv
  pathbench stats`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		// Map CLI debug flag to log level: debug => zap.DebugLevel (-1), else zap.InfoLevel (0)
		var level int8
		if debug {
			level = -1
		}
		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, logger.RootCommandKey, settings.CliBinaryName, logger.SubCommandKey, cmd.Name())

		loaded, err := loadConfig(cmd, configFile)
		if err != nil {
			return err
		}
		cfg = loaded

		run := settings.NewCliParams()
		run.Output = output
		run.NoColor = noColor
		run.IsQuiet = quiet
		run.Width = width

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		rootCtx = settings.IntoContext(logger.WithLogger(parent, lgr), run)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print pathbench version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), cliVersionString())
		return nil
	},
}

func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, %s)", settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

func init() { //nolint:gochecknoinits
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config-file", "", "path to a YAML config file (default $XDG_CONFIG_HOME/pathbench/config.yaml)")
	flags.BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	flags.BoolVar(&noColor, "no-color", false, "disable color output")
	flags.StringVarP(&output, "output", "o", "table", "output format: table|json|yaml|toml|tree|csv|raw (schema also accepts mermaid)")
	flags.StringVar(&storeDriver, "store-driver", "", "workspace store: file|duckdb|memory (default from config)")
	flags.StringVar(&storePath, "store-path", "", "workspace store directory (default from config)")
	flags.IntVar(&width, "width", 0, "output width in columns (0 = terminal width)")
	flags.BoolVar(&quiet, "quiet", false, "suppress result summaries on stderr")

	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(
		versionCmd,
		configCmd,
		schemaCmd,
		buildCmd,
		parseCmd,
		validateCmd,
		describeCmd,
		runCmd,
		searchCmd,
		exportCmd,
		statsCmd,
		historyCmd,
		favoritesCmd,
		serveCmd,
		mcpCmd,
	)
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}
