package postgres

import (
	"context"
	"fmt"

	"mathemania-service/internal/domain"

	"github.com/jackc/pgx/v4/pgxpool"
)

// Round2Store records uploaded round 2 solutions.
type Round2Store struct {
	pool *pgxpool.Pool
}

func NewRound2Store(pool *pgxpool.Pool) *Round2Store {
	return &Round2Store{pool: pool}
}

func (s *Round2Store) Insert(ctx context.Context, sub domain.Round2Submission) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO round_2_submissions (id, team_name, institute, file_path, file_url, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.TeamName, sub.Institute, sub.FilePath, sub.FileURL, sub.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert round 2 submission: %w", err)
	}
	return nil
}

func (s *Round2Store) List(ctx context.Context) ([]domain.Round2Submission, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, team_name, institute, file_path, file_url, submitted_at
		FROM round_2_submissions
		ORDER BY submitted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list round 2 submissions: %w", err)
	}
	defer rows.Close()

	var out []domain.Round2Submission
	for rows.Next() {
		var sub domain.Round2Submission
		if err := rows.Scan(&sub.ID, &sub.TeamName, &sub.Institute, &sub.FilePath, &sub.FileURL, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}
