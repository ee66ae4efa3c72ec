package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "mathemania-service",
		Short:         "Backend for the Mathemania competition: quiz scoring, leaderboard and site content",
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(&configPath, &port, envPort))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	cmd.AddCommand(NewReconcileCmd(&configPath))
	cmd.AddCommand(NewImportRegistrationsCmd(&configPath))
	cmd.AddCommand(NewLoadAnswerKeyCmd(&configPath))
	cmd.AddCommand(NewHashPasswordCmd())
	return cmd
}
