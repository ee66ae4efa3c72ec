package postgres

import (
	"context"
	"fmt"
	"time"

	"mathemania-service/internal/domain"

	"github.com/uptrace/bun"
)

type leaderboardRow struct {
	bun.BaseModel `bun:"table:leaderboard,alias:lb"`

	TeamName  string    `bun:"team_name,pk"`
	Score     int       `bun:"score,notnull"`
	College   string    `bun:"college,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

// LeaderboardStore keeps one row per team, keyed by team name.
type LeaderboardStore struct {
	db *bun.DB
}

func NewLeaderboardStore(db *bun.DB) *LeaderboardStore {
	return &LeaderboardStore{db: db}
}

func (s *LeaderboardStore) Exists(ctx context.Context, teamName string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*leaderboardRow)(nil)).
		Where("team_name = ?", teamName).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("leaderboard exists: %w", err)
	}
	return exists, nil
}

func (s *LeaderboardStore) Upsert(ctx context.Context, entry domain.LeaderboardEntry) error {
	row := &leaderboardRow{
		TeamName:  entry.TeamName,
		Score:     entry.Score,
		College:   entry.College,
		UpdatedAt: entry.UpdatedAt.UTC(),
	}
	_, err := s.db.NewInsert().
		Model(row).
		On("CONFLICT (team_name) DO UPDATE").
		Set("score = EXCLUDED.score").
		Set("college = EXCLUDED.college").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("upsert leaderboard: %w", err)
	}
	return nil
}

func (s *LeaderboardStore) List(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var rows []leaderboardRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("score DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	out := make([]domain.LeaderboardEntry, len(rows))
	for i, r := range rows {
		out[i] = domain.LeaderboardEntry{
			TeamName:  r.TeamName,
			Score:     r.Score,
			College:   r.College,
			UpdatedAt: r.UpdatedAt.UTC(),
		}
	}
	return out, nil
}
