package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"mathemania-service/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches answer keys from a backing store (file, Postgres).
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, keyID string) (domain.AnswerKey, error)
}

// AnswerKeyRepository caches answer keys in Redis and falls back to a loader on cache miss.
// Entries are stored as: HSET answerkey:{id}:entries {question} {entry json}
// Marking is stored as:  HSET answerkey:{id}:marking full|partial|penalty {points}
type AnswerKeyRepository struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group
	logger *zap.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAnswerKeyRepository(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: zap.NewNop(),
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithLogger sets the logger used for cache write failures.
func (r *AnswerKeyRepository) WithLogger(logger *zap.Logger) *AnswerKeyRepository {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// GetAnswerKey serves the key from Redis, loading it on a miss. Writing the
// cached copy is best effort: a Redis failure still returns the loaded key.
func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, keyID string) (domain.AnswerKey, error) {
	if key, ok := r.fromCache(ctx, keyID); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(keyID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if key, ok := r.fromCache(ctx, keyID); ok {
			return key, nil
		}

		key, err := r.loader.LoadAnswerKey(ctx, keyID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		if err := key.Validate(); err != nil {
			return domain.AnswerKey{}, fmt.Errorf("answer key %q: %w", keyID, err)
		}
		if err := r.store(ctx, keyID, key); err != nil {
			r.logger.Warn("cache answer key failed", zap.String("key", keyID), zap.Error(err))
		}
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate removes the cached copy so the next read goes to the loader.
func (r *AnswerKeyRepository) Invalidate(ctx context.Context, keyID string) error {
	return r.client.Del(ctx, r.entriesKey(keyID), r.markingKey(keyID)).Err()
}

func (r *AnswerKeyRepository) fromCache(ctx context.Context, keyID string) (domain.AnswerKey, bool) {
	entries, err := r.client.HGetAll(ctx, r.entriesKey(keyID)).Result()
	if err != nil || len(entries) == 0 {
		return domain.AnswerKey{}, false
	}
	marking, _ := r.client.HGetAll(ctx, r.markingKey(keyID)).Result()

	key, err := buildKeyFromCache(keyID, entries, marking)
	if err != nil {
		// corrupt cache entry; treat as a miss
		return domain.AnswerKey{}, false
	}
	return key, true
}

func (r *AnswerKeyRepository) store(ctx context.Context, keyID string, key domain.AnswerKey) error {
	entriesKey, markingKey := r.entriesKey(keyID), r.markingKey(keyID)
	marking := key.EffectiveMarking()
	ttl := r.ttlWithJitter()

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, entriesKey, markingKey)
	for q, entry := range key.Questions {
		raw, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		pipe.HSet(ctx, entriesKey, strconv.Itoa(q), raw)
	}
	pipe.HSet(ctx, markingKey, "full", marking.Full, "partial", marking.Partial, "penalty", marking.Penalty)
	if ttl > 0 {
		pipe.Expire(ctx, entriesKey, ttl)
		pipe.Expire(ctx, markingKey, ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (r *AnswerKeyRepository) entriesKey(keyID string) string {
	return "answerkey:" + keyID + ":entries"
}

func (r *AnswerKeyRepository) markingKey(keyID string) string {
	return "answerkey:" + keyID + ":marking"
}

func buildKeyFromCache(keyID string, entries, marking map[string]string) (domain.AnswerKey, error) {
	key := domain.AnswerKey{
		ID:        keyID,
		Marking:   domain.DefaultMarking(),
		Questions: make(map[int]domain.KeyEntry, len(entries)),
	}
	for field, raw := range entries {
		q, err := strconv.Atoi(field)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		var entry domain.KeyEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			return domain.AnswerKey{}, err
		}
		key.Questions[q] = entry
	}
	if v, err := strconv.Atoi(marking["full"]); err == nil {
		key.Marking.Full = v
	}
	if v, err := strconv.Atoi(marking["partial"]); err == nil {
		key.Marking.Partial = v
	}
	if v, err := strconv.Atoi(marking["penalty"]); err == nil {
		key.Marking.Penalty = v
	}
	return key, nil
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
