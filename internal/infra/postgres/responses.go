package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"mathemania-service/internal/domain"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResponseStore is the append-only quiz_responses log.
type ResponseStore struct {
	pool *pgxpool.Pool
}

func NewResponseStore(pool *pgxpool.Pool) *ResponseStore {
	return &ResponseStore{pool: pool}
}

func (s *ResponseStore) Insert(ctx context.Context, resp domain.QuizResponse) error {
	answers, err := json.Marshal(resp.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_responses (id, team_name, institute, answers, submitted_at)
		VALUES ($1, $2, $3, $4::jsonb, $5)`,
		resp.ID, resp.TeamName, resp.Institute, string(answers), resp.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	return nil
}

func (s *ResponseStore) List(ctx context.Context) ([]domain.QuizResponse, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, team_name, institute, answers, submitted_at
		FROM quiz_responses
		ORDER BY submitted_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var out []domain.QuizResponse
	for rows.Next() {
		var (
			resp domain.QuizResponse
			raw  []byte
		)
		if err := rows.Scan(&resp.ID, &resp.TeamName, &resp.Institute, &raw, &resp.SubmittedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &resp.Answers); err != nil {
			return nil, fmt.Errorf("unmarshal answers of %s: %w", resp.ID, err)
		}
		resp.SubmittedAt = resp.SubmittedAt.UTC()
		out = append(out, resp)
	}
	return out, rows.Err()
}

// FirstForTeam uses the same submitted_at, id order as List.
func (s *ResponseStore) FirstForTeam(ctx context.Context, teamName string) (domain.QuizResponse, error) {
	var (
		resp domain.QuizResponse
		raw  []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id::text, team_name, institute, answers, submitted_at
		FROM quiz_responses
		WHERE team_name = $1
		ORDER BY submitted_at, id
		LIMIT 1`, teamName).Scan(&resp.ID, &resp.TeamName, &resp.Institute, &raw, &resp.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizResponse{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.QuizResponse{}, fmt.Errorf("first response of %q: %w", teamName, err)
	}
	if err := json.Unmarshal(raw, &resp.Answers); err != nil {
		return domain.QuizResponse{}, fmt.Errorf("unmarshal answers of %s: %w", resp.ID, err)
	}
	resp.SubmittedAt = resp.SubmittedAt.UTC()
	return resp, nil
}
