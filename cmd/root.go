package cmd

import (
	"nutrition-catalog/internal/utils"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "nutrition-catalog",
		Short: "Food catalog with crowd-sourced submissions and moderation",
		Long: `nutrition-catalog serves a food catalog merged from a reference dataset,
moderator-approved foods, each user's pending submissions and foods kept locally.

It also runs database migrations and lets moderators review submissions from
the command line.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			utils.LoadConfigFrom(configPath)
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to the YAML config file")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newMigrateCmd())
	cmd.AddCommand(newModerateCmd())
	cmd.AddCommand(newCatalogCmd())
	cmd.AddCommand(newTokenCmd())

	return cmd
}
