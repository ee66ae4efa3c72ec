package cli

import (
	"context"
	"errors"

	"mathemania-service/internal/config"
	"mathemania-service/internal/infra/postgres"

	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd.Context(), *configPath)
		},
	}
}

func runMigrations(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return errors.New("postgres url not configured")
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	db := postgres.OpenBun(cfg.Postgres.URL)
	defer db.Close()
	return migrateDB(ctx, db, logger)
}

func (s *stack) migrate(ctx context.Context) error {
	return migrateDB(ctx, s.bunDB, s.logger)
}

func migrateDB(ctx context.Context, db *bun.DB, logger *zap.Logger) error {
	group, err := postgres.Migrate(ctx, db)
	if err != nil {
		logger.Error("migrations failed", zap.Error(err))
		return err
	}
	if group.IsZero() {
		logger.Info("database is up to date")
		return nil
	}
	logger.Info("migrations applied", zap.String("group", group.String()))
	return nil
}
