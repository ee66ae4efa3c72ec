package cli

import (
	"encoding/json"
	"fmt"

	"mathemania-service/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewReconcileCmd rebuilds the leaderboard once from the stored responses.
func NewReconcileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute every team's score and republish the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			defer func() { _ = logger.Sync() }()

			s, err := buildStack(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			report, err := s.quiz.Reconcile(cmd.Context())
			out, _ := json.MarshalIndent(report, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if err != nil {
				logger.Error("reconcile incomplete", zap.Int("failures", len(report.Failures)), zap.Error(err))
				return err
			}
			return nil
		},
	}
}
