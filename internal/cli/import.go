package cli

import (
	"fmt"
	"text/tabwriter"

	"mathemania-service/internal/app"
	"mathemania-service/internal/config"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewImportRegistrationsCmd copies teams from the registration sheet into
// the quiz registration directory and prints the codes handed out.
func NewImportRegistrationsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "import-registrations",
		Short: "Issue unique codes to newly registered teams",
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

			added, err := app.ImportRegistrations(cmd.Context(), s.content, s.registrations, nil)
			if err != nil {
				return err
			}
			logger.Info("registrations imported", zap.Int("added", len(added)))

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tTEAM\tINSTITUTE")
			for _, r := range added {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", r.UniqueCode, r.TeamName, r.Institute)
			}
			return tw.Flush()
		},
	}
}
