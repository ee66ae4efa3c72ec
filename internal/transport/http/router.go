package http

import (
	"net/http"

	"mathemania-service/internal/app"
	"mathemania-service/internal/auth"
	"mathemania-service/internal/content"
	"mathemania-service/internal/metrics"

	"go.uber.org/zap"
)

// Services are the use cases exposed over HTTP. Nil services leave their
// routes unregistered, except Quiz which is required.
type Services struct {
	Quiz      *app.QuizService
	Round2    *app.Round2Service
	Materials *app.MaterialsService
	Content   *content.Service
	Auth      *auth.Authenticator
	Metrics   *metrics.Metrics
	Logger    *zap.Logger
}

// Options tunes the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// RateLimit is requests per second per client IP on public writes; zero disables it.
	RateLimit      float64
	RateBurst      int
	MaxUploadBytes int64
}

type handlers struct {
	svc       Services
	logger    *zap.Logger
	maxUpload int64
}

// NewRouter builds the service's HTTP handler.
func NewRouter(svc Services, opts Options) http.Handler {
	logger := svc.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handlers{svc: svc, logger: logger, maxUpload: opts.MaxUploadBytes}
	if h.maxUpload <= 0 {
		h.maxUpload = 10 << 20
	}

	var limiter *ipLimiter
	if opts.RateLimit > 0 {
		limiter = newIPLimiter(opts.RateLimit, opts.RateBurst)
	}

	mux := http.NewServeMux()
	handle := func(pattern string, handler http.Handler) {
		if svc.Metrics != nil {
			handler = svc.Metrics.Middleware(pattern, handler)
		}
		mux.Handle(pattern, handler)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return requireAdmin(svc.Auth, logger, fn)
	}

	handle("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	if svc.Metrics != nil {
		mux.Handle("GET /metrics", svc.Metrics.Handler())
	}

	handle("POST /api/quiz/verify", limiter.wrap(http.HandlerFunc(h.verify)))
	handle("POST /api/quiz/submit", limiter.wrap(http.HandlerFunc(h.submit)))
	handle("GET /api/leaderboard", http.HandlerFunc(h.leaderboard))
	handle("GET /ws/leaderboard", NewWSHandler(svc.Quiz, logger, opts.AllowedOrigins))
	handle("GET /api/drafts/{session}", http.HandlerFunc(h.loadDraft))
	handle("PUT /api/drafts/{session}", http.HandlerFunc(h.saveDraft))
	handle("DELETE /api/drafts/{session}", http.HandlerFunc(h.discardDraft))

	handle("POST /api/admin/login", limiter.wrap(http.HandlerFunc(h.login)))
	handle("GET /api/admin/responses", admin(h.responses))
	handle("POST /api/admin/reconcile", admin(h.reconcile))

	if svc.Round2 != nil {
		handle("POST /api/round2", limiter.wrap(http.HandlerFunc(h.round2Submit)))
		handle("GET /api/admin/round2", admin(h.round2List))
	}
	if svc.Materials != nil {
		handle("GET /api/materials/{name}", http.HandlerFunc(h.materialLink))
		handle("POST /api/admin/materials", admin(h.materialUpload))
	}
	if svc.Content != nil {
		handle("GET /api/content", http.HandlerFunc(h.contentGet))
		handle("POST /api/content", limiter.wrap(http.HandlerFunc(h.contentPost)))
	}

	return cors(opts.AllowedOrigins, mux)
}
