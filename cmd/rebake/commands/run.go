package commands

import (
	"github.com/spf13/cobra"

	"go.pkgforge.dev/rebake/internal/adapters/config"
	"go.pkgforge.dev/rebake/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [recipes...]",
		Short: "Run the build pipeline for the configured recipe set",
		Long: "Run the build pipeline. With no arguments the configured recipe set\n" +
			"is processed; naming recipes on the command line overrides the set.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")
			rebuildCache, _ := cmd.Flags().GetBool("cache")
			recipe, _ := cmd.Flags().GetString("recipe")

			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if target, _ := cmd.Flags().GetString("target"); target != "" {
				cfg.Target = config.TargetMode(target)
			}
			c.logger.SetDebug(debug)
			if debug {
				// Debug runs are rehearsals; keep them off the wire.
				cfg.NotifyEnabled = false
			}

			recipes := args
			if recipe != "" {
				recipes = []string{recipe}
			}

			a := app.New(cfg, c.logger, cmd.OutOrStdout())
			return a.Run(cmd.Context(), app.RunOptions{
				Recipes:      recipes,
				RebuildCache: rebuildCache,
			})
		},
	}
	cmd.Flags().Bool("cache", false, "Reconstruct the download cache from the ledger before running")
	cmd.Flags().String("recipe", "", "Run a single recipe, overriding the set and any arguments")
	cmd.Flags().String("target", "", "Override the configured target mode (local or remote-session)")
	return cmd
}
