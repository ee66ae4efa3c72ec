package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"mathemania-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RegistrationDirectory resolves unique codes to registered teams.
type RegistrationDirectory interface {
	// LookupByCode returns domain.ErrNotFound when the code is unknown.
	LookupByCode(ctx context.Context, code string) (domain.Registration, error)
}

// ResponseStore is the insert-only raw response log.
type ResponseStore interface {
	Insert(ctx context.Context, resp domain.QuizResponse) error
	List(ctx context.Context) ([]domain.QuizResponse, error)
	// FirstForTeam returns the team's earliest response, or domain.ErrNotFound.
	FirstForTeam(ctx context.Context, teamName string) (domain.QuizResponse, error)
}

// LeaderboardStore holds one published entry per team.
type LeaderboardStore interface {
	Exists(ctx context.Context, teamName string) (bool, error)
	Upsert(ctx context.Context, entry domain.LeaderboardEntry) error
	List(ctx context.Context) ([]domain.LeaderboardEntry, error)
}

// AnswerKeyRepository loads answer keys (from cache/backing store).
type AnswerKeyRepository interface {
	GetAnswerKey(ctx context.Context, keyID string) (domain.AnswerKey, error)
}

// DraftStore keeps in-progress answers per browser session.
type DraftStore interface {
	Save(ctx context.Context, session string, answers domain.Answers) error
	// Load returns domain.ErrDraftNotFound for unknown sessions.
	Load(ctx context.Context, session string) (domain.Answers, error)
	Clear(ctx context.Context, session string) error
}

// Observer receives pipeline outcomes, typically for metrics.
type Observer interface {
	SubmissionOutcome(outcome string)
	ReconciledTeam(published bool)
}

type nopObserver struct{}

func (nopObserver) SubmissionOutcome(string) {}
func (nopObserver) ReconciledTeam(bool)      {}

// Deps groups the stores the quiz pipeline talks to.
type Deps struct {
	Registrations RegistrationDirectory
	Responses     ResponseStore
	Leaderboard   LeaderboardStore
	AnswerKeys    AnswerKeyRepository
	Drafts        DraftStore
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *QuizService) { s.logger = logger }
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(s *QuizService) { s.observer = o }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

// WithHub shares a leaderboard hub between services.
func WithHub(h *Hub) Option {
	return func(s *QuizService) { s.hub = h }
}

// WithConcurrency bounds the number of parallel upserts during reconciliation.
func WithConcurrency(n int) Option {
	return func(s *QuizService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// QuizService contains the quiz submission, scoring and leaderboard use cases.
type QuizService struct {
	quizID        string
	registrations RegistrationDirectory
	responses     ResponseStore
	leaderboard   LeaderboardStore
	keys          AnswerKeyRepository
	drafts        DraftStore
	hub           *Hub

	logger      *zap.Logger
	observer    Observer
	now         func() time.Time
	newID       func() string
	concurrency int
}

func NewQuizService(quizID string, deps Deps, opts ...Option) *QuizService {
	s := &QuizService{
		quizID:        quizID,
		registrations: deps.Registrations,
		responses:     deps.Responses,
		leaderboard:   deps.Leaderboard,
		keys:          deps.AnswerKeys,
		drafts:        deps.Drafts,
		hub:           NewHub(),
		logger:        zap.NewNop(),
		observer:      nopObserver{},
		now:           time.Now,
		newID:         uuid.NewString,
		concurrency:   8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitRequest is one team's final answer sheet.
type SubmitRequest struct {
	Code    string
	Answers domain.Answers
	// Session identifies the draft to clear once the submission is stored.
	Session string
}

// Verify resolves a code and checks the team has not submitted yet.
// The returned registration is filled in for ErrAlreadySubmitted too.
func (s *QuizService) Verify(ctx context.Context, code string) (domain.Registration, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return domain.Registration{}, domain.ErrInvalidCode
	}

	reg, err := s.registrations.LookupByCode(ctx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Registration{}, domain.ErrInvalidCode
		}
		return domain.Registration{}, fmt.Errorf("lookup registration: %w", err)
	}

	exists, err := s.leaderboard.Exists(ctx, reg.TeamName)
	if err != nil {
		return reg, fmt.Errorf("check leaderboard: %w", err)
	}
	if exists {
		return reg, fmt.Errorf("%w: team %q", domain.ErrAlreadySubmitted, reg.TeamName)
	}

	// A stored response whose publication failed still counts as the submission.
	_, err = s.responses.FirstForTeam(ctx, reg.TeamName)
	switch {
	case err == nil:
		return reg, fmt.Errorf("%w: team %q has a pending response", domain.ErrAlreadySubmitted, reg.TeamName)
	case !errors.Is(err, domain.ErrNotFound):
		return reg, fmt.Errorf("check responses: %w", err)
	}
	return reg, nil
}

// Submit validates the code, rejects resubmission, stores the raw response and
// then publishes the team's score. The check-then-insert is not atomic; two
// concurrent submissions for one team can both be stored, and the keyed upsert
// makes the leaderboard converge to a single row.
func (s *QuizService) Submit(ctx context.Context, req SubmitRequest) (domain.SubmitResult, error) {
	reg, err := s.Verify(ctx, req.Code)
	if err != nil {
		s.observer.SubmissionOutcome(outcomeOf(err))
		return domain.SubmitResult{TeamName: reg.TeamName, Institute: reg.Institute}, err
	}

	resp := domain.QuizResponse{
		ID:          s.newID(),
		TeamName:    reg.TeamName,
		Institute:   reg.Institute,
		Answers:     req.Answers,
		SubmittedAt: s.now().UTC(),
	}
	if err := s.responses.Insert(ctx, resp); err != nil {
		s.observer.SubmissionOutcome("error")
		return domain.SubmitResult{TeamName: reg.TeamName, Institute: reg.Institute}, fmt.Errorf("store response: %w", err)
	}
	s.observer.SubmissionOutcome("accepted")

	result := domain.SubmitResult{
		ResponseID: resp.ID,
		TeamName:   resp.TeamName,
		Institute:  resp.Institute,
	}

	if req.Session != "" && s.drafts != nil {
		if err := s.drafts.Clear(ctx, req.Session); err != nil {
			s.logger.Warn("clear draft failed", zap.String("session", req.Session), zap.Error(err))
		}
	}

	// Publish the response Reconcile would pick, so a concurrent duplicate
	// cannot change the team's score later.
	counted, err := s.responses.FirstForTeam(ctx, resp.TeamName)
	if err != nil {
		s.logger.Warn("lookup first response failed", zap.String("team", resp.TeamName), zap.Error(err))
		counted = resp
	}

	entry, err := s.publishOne(ctx, counted)
	if err != nil {
		// The response is durable; the reconciler publishes it later.
		s.logger.Warn("publish after submit failed",
			zap.String("team", resp.TeamName), zap.Error(err))
		return result, nil
	}
	result.Score = entry.Score
	result.Published = true
	s.broadcast(ctx)
	return result, nil
}

func (s *QuizService) publishOne(ctx context.Context, resp domain.QuizResponse) (domain.LeaderboardEntry, error) {
	key, err := s.keys.GetAnswerKey(ctx, s.quizID)
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("load answer key: %w", err)
	}
	entry := entryFor(resp, key)
	if err := s.leaderboard.Upsert(ctx, entry); err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("upsert leaderboard: %w", err)
	}
	return entry, nil
}

func entryFor(resp domain.QuizResponse, key domain.AnswerKey) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		TeamName:  resp.TeamName,
		Score:     Score(resp.Answers, key),
		College:   resp.Institute,
		UpdatedAt: resp.SubmittedAt,
	}
}

// TeamFailure is a team whose entry could not be published.
type TeamFailure struct {
	TeamName string `json:"teamName"`
	Error    string `json:"error"`
}

// ReconcileReport summarizes a publication pass.
type ReconcileReport struct {
	Responses int           `json:"responses"`
	Teams     int           `json:"teams"`
	Published int           `json:"published"`
	Failures  []TeamFailure `json:"failures,omitempty"`
}

// Reconcile recomputes every team's score from its raw response and upserts
// the leaderboard. Entries are derived only from stored data, so rerunning on
// unchanged responses rewrites identical rows. Per-team failures do not stop
// the pass; they are collected into the report and the returned error.
func (s *QuizService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	key, err := s.keys.GetAnswerKey(ctx, s.quizID)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("load answer key: %w", err)
	}
	raw, err := s.responses.List(ctx)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("list responses: %w", err)
	}

	unique := FirstPerTeam(raw)
	report := ReconcileReport{Responses: len(raw), Teams: len(unique)}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, resp := range unique {
		g.Go(func() error {
			err := s.leaderboard.Upsert(gctx, entryFor(resp, key))
			s.observer.ReconciledTeam(err == nil)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failures = append(report.Failures, TeamFailure{TeamName: resp.TeamName, Error: err.Error()})
				errs = append(errs, fmt.Errorf("team %q: %w", resp.TeamName, err))
				return nil
			}
			report.Published++
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Failures, func(i, j int) bool {
		return report.Failures[i].TeamName < report.Failures[j].TeamName
	})

	if report.Published > 0 {
		s.broadcast(ctx)
	}
	if len(errs) > 0 {
		return report, fmt.Errorf("reconcile: %d of %d teams failed: %w", len(errs), report.Teams, errors.Join(errs...))
	}
	return report, nil
}

// RunReconciler reconciles on every tick until ctx is done. A non-positive
// interval disables it.
func (s *QuizService) RunReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := s.Reconcile(ctx)
			if err != nil {
				s.logger.Warn("reconcile finished with errors",
					zap.Int("teams", report.Teams),
					zap.Int("published", report.Published),
					zap.Error(err))
				continue
			}
			s.logger.Debug("reconcile finished",
				zap.Int("teams", report.Teams),
				zap.Int("published", report.Published))
		}
	}
}

// Leaderboard returns all entries ranked by score.
func (s *QuizService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	entries, err := s.leaderboard.List(ctx)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("list leaderboard: %w", err)
	}
	return domain.Leaderboard{
		QuizID:    s.quizID,
		Entries:   RankEntries(entries),
		UpdatedAt: s.now().UTC(),
	}, nil
}

// Subscribe returns a channel that receives leaderboard snapshots, starting
// with the current one. The caller must invoke the returned cancel function.
func (s *QuizService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	return s.hub.SubscribeWith(func() (domain.Leaderboard, error) {
		return s.Leaderboard(ctx)
	})
}

func (s *QuizService) broadcast(ctx context.Context) {
	err := s.hub.PublishWith(func() (domain.Leaderboard, error) {
		return s.Leaderboard(ctx)
	})
	if err != nil {
		s.logger.Warn("leaderboard broadcast skipped", zap.Error(err))
	}
}

// LatestResponses returns the most recent raw response of each team, newest first.
func (s *QuizService) LatestResponses(ctx context.Context) ([]domain.QuizResponse, error) {
	raw, err := s.responses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	latest := make(map[string]domain.QuizResponse, len(raw))
	for _, r := range raw {
		if cur, ok := latest[r.TeamName]; !ok || r.SubmittedAt.After(cur.SubmittedAt) {
			latest[r.TeamName] = r
		}
	}
	out := make([]domain.QuizResponse, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.After(out[j].SubmittedAt)
		}
		return out[i].TeamName < out[j].TeamName
	})
	return out, nil
}

// SaveDraft stores in-progress answers for a session.
func (s *QuizService) SaveDraft(ctx context.Context, session string, answers domain.Answers) error {
	if s.drafts == nil {
		return errors.New("draft store not configured")
	}
	return s.drafts.Save(ctx, session, answers)
}

// LoadDraft returns the saved answers of a session.
func (s *QuizService) LoadDraft(ctx context.Context, session string) (domain.Answers, error) {
	if s.drafts == nil {
		return nil, domain.ErrDraftNotFound
	}
	return s.drafts.Load(ctx, session)
}

// DiscardDraft removes a session's draft.
func (s *QuizService) DiscardDraft(ctx context.Context, session string) error {
	if s.drafts == nil {
		return nil
	}
	return s.drafts.Clear(ctx, session)
}

// FirstPerTeam keeps the earliest response of each team, so a duplicate that
// slipped through intake never replaces the first accepted answer sheet.
func FirstPerTeam(raw []domain.QuizResponse) []domain.QuizResponse {
	first := make(map[string]int, len(raw))
	out := make([]domain.QuizResponse, 0, len(raw))
	for _, r := range raw {
		idx, ok := first[r.TeamName]
		if !ok {
			first[r.TeamName] = len(out)
			out = append(out, r)
			continue
		}
		if r.SubmittedAt.Before(out[idx].SubmittedAt) {
			out[idx] = r
		}
	}
	return out
}

// RankEntries orders entries by score desc, then earliest submission, then name.
func RankEntries(entries []domain.LeaderboardEntry) []domain.RankedEntry {
	sorted := append([]domain.LeaderboardEntry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		if !sorted[i].UpdatedAt.Equal(sorted[j].UpdatedAt) {
			return sorted[i].UpdatedAt.Before(sorted[j].UpdatedAt)
		}
		return sorted[i].TeamName < sorted[j].TeamName
	})

	ranked := make([]domain.RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = domain.RankedEntry{Rank: i + 1, LeaderboardEntry: e}
	}
	return ranked
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, domain.ErrAlreadySubmitted):
		return "already_submitted"
	default:
		return "error"
	}
}
