package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mathemania-service/internal/config"
	transport "mathemania-service/internal/transport/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string, defaultPort string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the HTTP server and the leaderboard reconciler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
	cmd.Flags().StringVar(port, "port", defaultPort, "port to listen on (overrides server.port)")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := buildStack(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer s.Close()

	if s.bunDB != nil {
		if err := s.migrate(ctx); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	handler := transport.NewRouter(transport.Services{
		Quiz:      s.quiz,
		Round2:    s.round2,
		Materials: s.materials,
		Content:   s.content,
		Auth:      s.auth,
		Metrics:   s.metrics,
		Logger:    logger.Named("http"),
	}, transport.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit:      cfg.RateLimit.RPS,
		RateBurst:      cfg.RateLimit.Burst,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 30*time.Second),
	}

	interval := config.TTLDuration(cfg.Quiz.ReconcileInterval, time.Minute)
	go s.quiz.RunReconciler(ctx, interval)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting mathemania service",
			zap.String("addr", server.Addr),
			zap.String("quiz", cfg.Quiz.ID),
			zap.Duration("reconcile_interval", interval),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server failed", zap.Error(err))
			return err
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
