package cli

import (
	"errors"
	"fmt"

	"mathemania-service/internal/config"
	"mathemania-service/internal/infra/file"
	"mathemania-service/internal/infra/postgres"
	redisinfra "mathemania-service/internal/infra/redis"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewLoadAnswerKeyCmd stores a YAML answer key in Postgres and drops the
// cached copy so the next scoring run reads it.
func NewLoadAnswerKeyCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "load-answer-key <file>",
		Short: "Store an answer key in Postgres",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Postgres.URL == "" {
				return errors.New("postgres url not configured")
			}
			logger := newLogger(cfg)
			defer func() { _ = logger.Sync() }()

			key, err := file.ReadAnswerKey(args[0])
			if err != nil {
				return err
			}
			if key.ID == "" {
				key.ID = cfg.Quiz.ID
			}
			if err := key.Validate(); err != nil {
				return err
			}

			pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
			if err != nil {
				return err
			}
			defer pool.Close()

			loader := postgres.NewAnswerKeyLoader(pool)
			if err := loader.SaveAnswerKey(ctx, key); err != nil {
				return err
			}

			if cfg.Redis.Addr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
				defer client.Close()
				cache := redisinfra.NewAnswerKeyRepository(client, loader, 0)
				if err := cache.Invalidate(ctx, key.ID); err != nil {
					logger.Warn("answer key cache not cleared", zap.String("key", key.ID), zap.Error(err))
				}
			}

			logger.Info("answer key stored", zap.String("key", key.ID), zap.Int("questions", len(key.Questions)))
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s (%d questions)\n", key.ID, len(key.Questions))
			return nil
		},
	}
}
