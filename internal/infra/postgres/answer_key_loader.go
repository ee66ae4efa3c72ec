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

// AnswerKeyLoader loads answer-key JSONB from Postgres.
type AnswerKeyLoader struct {
	pool *pgxpool.Pool
}

func NewAnswerKeyLoader(pool *pgxpool.Pool) *AnswerKeyLoader {
	return &AnswerKeyLoader{pool: pool}
}

func (l *AnswerKeyLoader) LoadAnswerKey(ctx context.Context, keyID string) (domain.AnswerKey, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM answer_keys WHERE id = $1`, keyID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.AnswerKey{}, domain.ErrAnswerKeyNotFound
	}
	if err != nil {
		return domain.AnswerKey{}, fmt.Errorf("load answer key: %w", err)
	}
	var key domain.AnswerKey
	if err := json.Unmarshal(raw, &key); err != nil {
		return domain.AnswerKey{}, fmt.Errorf("unmarshal answer key: %w", err)
	}
	key.ID = keyID
	return key, nil
}

// SaveAnswerKey validates and stores a key, replacing any previous version.
func (l *AnswerKeyLoader) SaveAnswerKey(ctx context.Context, key domain.AnswerKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(key)
	if err != nil {
		return fmt.Errorf("marshal answer key: %w", err)
	}
	_, err = l.pool.Exec(ctx, `
		INSERT INTO answer_keys (id, data, updated_at) VALUES ($1, $2::jsonb, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		key.ID, string(data))
	if err != nil {
		return fmt.Errorf("save answer key: %w", err)
	}
	return nil
}
