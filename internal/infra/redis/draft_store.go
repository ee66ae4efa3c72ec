package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mathemania-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps in-progress answer sheets in Redis so a reload or a second
// replica sees the same draft. Each draft expires ttl after its last save.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) Save(ctx context.Context, session string, answers domain.Answers) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return s.client.Set(ctx, s.key(session), raw, s.ttl).Err()
}

func (s *DraftStore) Load(ctx context.Context, session string) (domain.Answers, error) {
	raw, err := s.client.Get(ctx, s.key(session)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	var answers domain.Answers
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	return answers, nil
}

func (s *DraftStore) Clear(ctx context.Context, session string) error {
	return s.client.Del(ctx, s.key(session)).Err()
}

func (s *DraftStore) key(session string) string {
	return "quiz:draft:" + session
}
