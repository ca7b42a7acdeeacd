// Package commands implements the CLI commands for the rebake orchestrator.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"go.pkgforge.dev/rebake/internal/adapters/logger"
	"go.pkgforge.dev/rebake/internal/build"
)

// CLI represents the command line interface for rebake.
type CLI struct {
	rootCmd *cobra.Command
	logger  *logger.Logger
}

// New creates a new CLI instance.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "rebake",
		Short:         "Metadata-driven package build orchestrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().StringP("config", "c", "rebake.yaml", "Configuration file")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	c := &CLI{
		rootCmd: rootCmd,
		logger:  logger.New(),
	}

	rootCmd.AddCommand(c.newRunCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}
