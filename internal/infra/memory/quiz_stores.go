package memory

import (
	"context"
	"sync"

	"mathemania-service/internal/domain"
)

// RegistrationDirectory is an in-memory registration table keyed by unique code.
type RegistrationDirectory struct {
	mu     sync.RWMutex
	byCode map[string]domain.Registration
}

func NewRegistrationDirectory(regs ...domain.Registration) *RegistrationDirectory {
	d := &RegistrationDirectory{byCode: make(map[string]domain.Registration, len(regs))}
	for _, r := range regs {
		d.byCode[r.UniqueCode] = r
	}
	return d
}

func (d *RegistrationDirectory) LookupByCode(_ context.Context, code string) (domain.Registration, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	reg, ok := d.byCode[code]
	if !ok {
		return domain.Registration{}, domain.ErrNotFound
	}
	return reg, nil
}

func (d *RegistrationDirectory) InsertMissing(_ context.Context, regs []domain.Registration) ([]domain.Registration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make(map[string]struct{}, len(d.byCode))
	for _, r := range d.byCode {
		names[r.TeamName] = struct{}{}
	}
	var inserted []domain.Registration
	for _, r := range regs {
		if _, ok := names[r.TeamName]; ok {
			continue
		}
		if _, ok := d.byCode[r.UniqueCode]; ok {
			continue
		}
		d.byCode[r.UniqueCode] = r
		names[r.TeamName] = struct{}{}
		inserted = append(inserted, r)
	}
	return inserted, nil
}

// ResponseStore is an append-only in-memory response log.
type ResponseStore struct {
	mu        sync.RWMutex
	responses []domain.QuizResponse
}

func NewResponseStore(seed ...domain.QuizResponse) *ResponseStore {
	return &ResponseStore{responses: append([]domain.QuizResponse(nil), seed...)}
}

func (s *ResponseStore) Insert(_ context.Context, resp domain.QuizResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, resp)
	return nil
}

func (s *ResponseStore) List(_ context.Context) ([]domain.QuizResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuizResponse(nil), s.responses...), nil
}

// FirstForTeam returns the earliest response of a team; on equal times the
// one inserted first wins.
func (s *ResponseStore) FirstForTeam(_ context.Context, teamName string) (domain.QuizResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		first domain.QuizResponse
		found bool
	)
	for _, r := range s.responses {
		if r.TeamName != teamName {
			continue
		}
		if !found || r.SubmittedAt.Before(first.SubmittedAt) {
			first, found = r, true
		}
	}
	if !found {
		return domain.QuizResponse{}, domain.ErrNotFound
	}
	return first, nil
}

// LeaderboardStore keeps one entry per team name.
type LeaderboardStore struct {
	mu      sync.RWMutex
	entries map[string]domain.LeaderboardEntry
}

func NewLeaderboardStore(seed ...domain.LeaderboardEntry) *LeaderboardStore {
	s := &LeaderboardStore{entries: make(map[string]domain.LeaderboardEntry, len(seed))}
	for _, e := range seed {
		s.entries[e.TeamName] = e
	}
	return s
}

func (s *LeaderboardStore) Exists(_ context.Context, teamName string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[teamName]
	return ok, nil
}

func (s *LeaderboardStore) Upsert(_ context.Context, entry domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.TeamName] = entry
	return nil
}

// List returns entries in no particular order; ranking happens in the service.
func (s *LeaderboardStore) List(_ context.Context) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.LeaderboardEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, nil
}

// Round2Store is an in-memory list of round 2 submissions.
type Round2Store struct {
	mu   sync.RWMutex
	subs []domain.Round2Submission
}

func NewRound2Store() *Round2Store {
	return &Round2Store{}
}

func (s *Round2Store) Insert(_ context.Context, sub domain.Round2Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Round2Store) List(_ context.Context) ([]domain.Round2Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Round2Submission(nil), s.subs...), nil
}
