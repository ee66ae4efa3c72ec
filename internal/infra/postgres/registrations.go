package postgres

import (
	"context"
	"errors"
	"fmt"

	"mathemania-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RegistrationDirectory reads and extends the registrations table.
type RegistrationDirectory struct {
	pool *pgxpool.Pool
}

func NewRegistrationDirectory(pool *pgxpool.Pool) *RegistrationDirectory {
	return &RegistrationDirectory{pool: pool}
}

func (d *RegistrationDirectory) LookupByCode(ctx context.Context, code string) (domain.Registration, error) {
	reg := domain.Registration{UniqueCode: code}
	err := d.pool.QueryRow(ctx,
		`SELECT team_name, institute FROM registrations WHERE unique_code = $1`, code,
	).Scan(&reg.TeamName, &reg.Institute)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Registration{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Registration{}, fmt.Errorf("lookup registration: %w", err)
	}
	return reg, nil
}

// InsertMissing inserts the teams in one transaction. Rows that collide on
// team name or code are skipped and keep their existing code.
func (d *RegistrationDirectory) InsertMissing(ctx context.Context, regs []domain.Registration) ([]domain.Registration, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var inserted []domain.Registration
	for _, r := range regs {
		tag, err := tx.Exec(ctx, `
			INSERT INTO registrations (unique_code, team_name, institute)
			VALUES ($1, $2, $3)
			ON CONFLICT DO NOTHING`,
			r.UniqueCode, r.TeamName, r.Institute)
		if err != nil {
			return nil, fmt.Errorf("insert registration %q: %w", r.TeamName, err)
		}
		if tag.RowsAffected() == 1 {
			inserted = append(inserted, r)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return inserted, nil
}
