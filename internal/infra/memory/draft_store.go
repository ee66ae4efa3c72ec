package memory

import (
	"context"
	"sync"

	"mathemania-service/internal/domain"
)

// DraftStore is an in-memory implementation of app.DraftStore.
type DraftStore struct {
	mu     sync.RWMutex
	drafts map[string]domain.Answers
}

func NewDraftStore() *DraftStore {
	return &DraftStore{
		drafts: make(map[string]domain.Answers),
	}
}

func (s *DraftStore) Save(_ context.Context, session string, answers domain.Answers) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[session] = copyAnswers(answers)
	return nil
}

func (s *DraftStore) Load(_ context.Context, session string) (domain.Answers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answers, ok := s.drafts[session]
	if !ok {
		return nil, domain.ErrDraftNotFound
	}
	return copyAnswers(answers), nil
}

func (s *DraftStore) Clear(_ context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, session)
	return nil
}

func copyAnswers(in domain.Answers) domain.Answers {
	out := make(domain.Answers, len(in))
	for q, a := range in {
		out[q] = domain.Answer{
			Options: append([]string(nil), a.Options...),
			Value:   a.Value,
		}
	}
	return out
}
