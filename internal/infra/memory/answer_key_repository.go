package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"mathemania-service/internal/domain"

	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches answer keys from a backing store (file, Postgres).
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, keyID string) (domain.AnswerKey, error)
}

// AnswerKeyRepository caches answer keys with TTL to avoid repeated loads.
type AnswerKeyRepository struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedKey
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyRepository(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyRepository {
	return &AnswerKeyRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedKey),
	}
}

// GetAnswerKey returns a cached, validated key or loads it once for all
// concurrent callers. A non-positive TTL disables caching.
func (r *AnswerKeyRepository) GetAnswerKey(ctx context.Context, keyID string) (domain.AnswerKey, error) {
	if key, ok := r.fresh(keyID); ok {
		return key, nil
	}

	result, err, _ := r.sf.Do(keyID, func() (interface{}, error) {
		// a caller that lost the race may find the key already stored
		if key, ok := r.fresh(keyID); ok {
			return key, nil
		}

		loadedAt := r.clock()
		key, err := r.loader.LoadAnswerKey(ctx, keyID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		if err := key.Validate(); err != nil {
			return domain.AnswerKey{}, fmt.Errorf("answer key %q: %w", keyID, err)
		}

		r.mu.Lock()
		r.cache[keyID] = cachedKey{key: key, expiresAt: loadedAt.Add(r.ttlWithJitter())}
		r.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

func (r *AnswerKeyRepository) fresh(keyID string) (domain.AnswerKey, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[keyID]
	if !ok || !entry.expiresAt.After(r.clock()) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

// Invalidate drops a cached key so the next read reloads it.
func (r *AnswerKeyRepository) Invalidate(keyID string) {
	r.mu.Lock()
	delete(r.cache, keyID)
	r.mu.Unlock()
}

// StaticAnswerKeyLoader is a loader backed by an in-memory map (config file, tests).
type StaticAnswerKeyLoader struct {
	keys map[string]domain.AnswerKey
}

func NewStaticAnswerKeyLoader(keys ...domain.AnswerKey) *StaticAnswerKeyLoader {
	m := make(map[string]domain.AnswerKey, len(keys))
	for _, k := range keys {
		m[k.ID] = k
	}
	return &StaticAnswerKeyLoader{keys: m}
}

func (l *StaticAnswerKeyLoader) LoadAnswerKey(_ context.Context, keyID string) (domain.AnswerKey, error) {
	if key, ok := l.keys[keyID]; ok {
		return key, nil
	}
	return domain.AnswerKey{}, domain.ErrAnswerKeyNotFound
}

func (r *AnswerKeyRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// Entries expire within [ttl, 1.1*ttl]; keys loaded together (every
	// round at startup) then do not all reload on the same request.
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
