package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oakwood-commons/pathbench/internal/config"
)

// loadConfig merges the embedded defaults with the user config file and
// applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command, path string) (config.Config, error) {
	c, err := config.Load(path)
	if err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("store-driver") {
		c.Store.Driver = storeDriver
	}
	if flags.Changed("store-path") {
		c.Store.Path = storePath
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage pathbench configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		switch runSettings().Output {
		case "json":
			return writeJSON(cmd.OutOrStdout(), cfg)
		default:
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		}
	},
}

var configDefaultCmd = &cobra.Command{
	Use:   "default",
	Short: "Print the built-in default configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, err := cmd.OutOrStdout().Write(config.DefaultConfigYAML())
		return err
	},
}

func init() { //nolint:gochecknoinits
	configCmd.AddCommand(configShowCmd, configDefaultCmd)
}
