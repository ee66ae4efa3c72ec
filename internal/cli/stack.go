package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mathemania-service/internal/app"
	"mathemania-service/internal/auth"
	"mathemania-service/internal/config"
	"mathemania-service/internal/content"
	"mathemania-service/internal/domain"
	"mathemania-service/internal/infra/file"
	"mathemania-service/internal/infra/memory"
	"mathemania-service/internal/infra/objectstore"
	"mathemania-service/internal/infra/postgres"
	redisinfra "mathemania-service/internal/infra/redis"
	"mathemania-service/internal/infra/sheets"
	"mathemania-service/internal/logging"
	"mathemania-service/internal/metrics"
	"mathemania-service/internal/notify"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

type registrationStore interface {
	app.RegistrationDirectory
	app.RegistrationWriter
}

type answerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, keyID string) (domain.AnswerKey, error)
}

// stack holds every backend the commands share. Close releases them.
type stack struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics

	pool  *pgxpool.Pool
	bunDB *bun.DB
	redis *redis.Client

	registrations registrationStore
	quiz          *app.QuizService
	round2        *app.Round2Service
	materials     *app.MaterialsService
	content       *content.Service
	auth          *auth.Authenticator

	closers []func()
}

func newLogger(cfg config.Config) *zap.Logger {
	return logging.New(logging.Options{Level: cfg.Log.Level, File: cfg.Log.File})
}

// buildStack connects the configured backends. Postgres and Redis are
// optional; without them the in-memory stores are used.
func buildStack(ctx context.Context, cfg config.Config, logger *zap.Logger) (*stack, error) {
	s := &stack{cfg: cfg, logger: logger, metrics: metrics.New()}
	if err := s.connect(ctx); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.wire(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *stack) connect(ctx context.Context) error {
	if url := s.cfg.Postgres.URL; url != "" {
		pool, err := postgres.Connect(ctx, url)
		if err != nil {
			return err
		}
		s.pool = pool
		s.closers = append(s.closers, pool.Close)

		s.bunDB = postgres.OpenBun(url)
		s.closers = append(s.closers, func() { _ = s.bunDB.Close() })
	} else {
		s.logger.Warn("postgres not configured; quiz data is kept in memory")
	}

	if addr := s.cfg.Redis.Addr; addr != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: s.cfg.Redis.Password,
			DB:       s.cfg.Redis.DB,
		})
		s.closers = append(s.closers, func() { _ = s.redis.Close() })
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
	}
	return nil
}

func (s *stack) wire(ctx context.Context) error {
	cfg := s.cfg

	var (
		responses   app.ResponseStore
		leaderboard app.LeaderboardStore
		round2Store app.Round2Store
	)
	if s.pool != nil {
		s.registrations = postgres.NewRegistrationDirectory(s.pool)
		responses = postgres.NewResponseStore(s.pool)
		leaderboard = postgres.NewLeaderboardStore(s.bunDB)
		round2Store = postgres.NewRound2Store(s.pool)
	} else {
		s.registrations = memory.NewRegistrationDirectory()
		responses = memory.NewResponseStore()
		leaderboard = memory.NewLeaderboardStore()
		round2Store = memory.NewRound2Store()
	}

	loader, err := s.answerKeyLoader()
	if err != nil {
		return err
	}
	keyTTL := config.TTLDuration(cfg.AnswerKey.TTL, 10*time.Minute)
	var (
		keys   app.AnswerKeyRepository
		drafts app.DraftStore
	)
	draftTTL := config.TTLDuration(cfg.Quiz.DraftTTL, 6*time.Hour)
	if s.redis != nil {
		keys = redisinfra.NewAnswerKeyRepository(s.redis, loader, keyTTL).WithLogger(s.logger.Named("answerkey"))
		drafts = redisinfra.NewDraftStore(s.redis, draftTTL)
	} else {
		keys = memory.NewAnswerKeyRepository(loader, keyTTL)
		drafts = memory.NewDraftStore()
	}

	s.quiz = app.NewQuizService(cfg.Quiz.ID, app.Deps{
		Registrations: s.registrations,
		Responses:     responses,
		Leaderboard:   leaderboard,
		AnswerKeys:    keys,
		Drafts:        drafts,
	},
		app.WithLogger(s.logger.Named("quiz")),
		app.WithObserver(s.metrics),
		app.WithConcurrency(cfg.Quiz.ReconcileConcurrency),
	)

	objects, err := objectstore.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object store: %w", err)
	}
	s.round2 = app.NewRound2Service(s.registrations, objects, round2Store, s.logger.Named("round2"))
	s.materials = app.NewMaterialsService(objects, config.TTLDuration(cfg.Storage.LinkTTL, 15*time.Minute))

	if err := s.wireContent(ctx); err != nil {
		return err
	}

	if cfg.Admin.JWTSecret != "" {
		s.auth, err = auth.NewAuthenticator(cfg.Admin.PasswordHash, cfg.Admin.JWTSecret, config.TTLDuration(cfg.Admin.TokenTTL, 12*time.Hour))
		if err != nil {
			return err
		}
	} else {
		s.logger.Warn("admin.jwt_secret not set; admin endpoints reject every request")
	}
	return nil
}

func (s *stack) answerKeyLoader() (answerKeyLoader, error) {
	switch {
	case s.cfg.AnswerKey.Path != "":
		return file.NewAnswerKeyLoader(s.cfg.AnswerKey.Path), nil
	case s.pool != nil:
		return postgres.NewAnswerKeyLoader(s.pool), nil
	default:
		return nil, errors.New("no answer key source: set answer_key.path or postgres.url")
	}
}

func (s *stack) wireContent(ctx context.Context) error {
	cfg := s.cfg

	var table content.Table
	if cfg.Sheets.SpreadsheetID != "" {
		client, err := sheets.New(ctx, sheets.Options{
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			CredentialsFile: cfg.Sheets.CredentialsFile,
			CredentialsJSON: cfg.Sheets.CredentialsJSON,
			Endpoint:        cfg.Sheets.Endpoint,
		})
		if err != nil {
			return err
		}
		table = client
	} else {
		s.logger.Warn("sheets.spreadsheet_id not set; site content is kept in memory")
		table = memory.NewSpreadsheet()
	}

	var notifier content.Notifier = notify.NewLog(s.logger.Named("notify"))
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, "")
		if err != nil {
			return err
		}
		notifier = tg
	}

	opts := []content.Option{
		content.WithLogger(s.logger.Named("content")),
		content.WithNotifier(notifier, content.Formatter{
			Contact:      notify.ContactText,
			Registration: notify.RegistrationText,
		}),
	}
	if cfg.Medium.FeedURL != "" {
		opts = append(opts, content.WithFeed(cfg.Medium.FeedURL, nil))
	}
	s.content = content.NewService(table, opts...)
	return nil
}

// Close releases connections in reverse order.
func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
