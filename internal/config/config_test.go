package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleConfig = `
server:
  port: "9090"
postgres:
  url: postgres://file@localhost/db
quiz:
  reconcile_interval: 30s
storage:
  provider: minio
  bucket: mathemania
cors:
  allowed_origins: ["https://mathemania.example"]
`

func TestLoadAppliesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("DATABASE_URL", "postgres://env@localhost/db")
	t.Setenv("TELEGRAM_CHAT_ID", "-100123")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("unexpected port %q", cfg.Server.Port)
	}
	if cfg.Postgres.URL != "postgres://env@localhost/db" {
		t.Fatalf("expected env override, got %q", cfg.Postgres.URL)
	}
	if cfg.Telegram.ChatID != -100123 || cfg.Admin.JWTSecret != "s3cret" {
		t.Fatalf("unexpected secrets %+v %+v", cfg.Telegram, cfg.Admin)
	}
	if cfg.Quiz.ID != "round1" || cfg.Server.MaxUploadMB != 10 {
		t.Fatalf("defaults not applied: %+v", cfg.Quiz)
	}
	if cfg.Storage.Provider != "minio" || len(cfg.CORS.AllowedOrigins) != 1 {
		t.Fatalf("unexpected storage/cors %+v %+v", cfg.Storage, cfg.CORS)
	}
	if got := TTLDuration(cfg.Quiz.ReconcileInterval, time.Minute); got != 30*time.Second {
		t.Fatalf("unexpected reconcile interval %s", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestTTLDuration(t *testing.T) {
	if got := TTLDuration("", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback, got %s", got)
	}
	if got := TTLDuration("garbage", time.Minute); got != time.Minute {
		t.Fatalf("expected fallback for bad input, got %s", got)
	}
	if got := TTLDuration("90s", time.Minute); got != 90*time.Second {
		t.Fatalf("expected 90s, got %s", got)
	}
}
