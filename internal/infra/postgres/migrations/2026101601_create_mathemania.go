package migrations

import (
	"context"
	_ "embed"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

//go:embed 2026101601_create_mathemania.up.sql
var createMathemaniaSQL string

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, createMathemaniaSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.ExecContext(ctx, `
				DROP TABLE IF EXISTS answer_keys;
				DROP TABLE IF EXISTS round_2_submissions;
				DROP TABLE IF EXISTS leaderboard;
				DROP TABLE IF EXISTS quiz_responses;
				DROP TABLE IF EXISTS registrations;
			`)
			return err
		},
	)
}
