package objectstore

import (
	"context"
	"strings"
	"testing"

	"mathemania-service/internal/config"
	"mathemania-service/internal/infra/memory"
)

func TestNewSelectsProvider(t *testing.T) {
	ctx := context.Background()

	var cfg config.Config
	cfg.Storage.PublicBaseURL = "https://files.test"
	store, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("memory provider: %v", err)
	}
	if _, ok := store.(*memory.ObjectStore); !ok {
		t.Fatalf("expected memory store, got %T", store)
	}

	cfg.Storage.Provider = "ftp"
	if _, err := New(ctx, cfg); err == nil {
		t.Fatalf("expected unknown provider error")
	}
}

func TestNewMinioBaseURL(t *testing.T) {
	m, err := NewMinio(MinioOptions{
		Endpoint:  "localhost:9000",
		AccessKey: "minio",
		SecretKey: "minio123",
		Bucket:    "mathemania",
		Region:    "us-east-1",
	})
	if err != nil {
		t.Fatalf("new minio: %v", err)
	}
	if m.baseURL != "http://localhost:9000/mathemania" {
		t.Fatalf("unexpected base url %q", m.baseURL)
	}

	custom, err := NewMinio(MinioOptions{
		Endpoint:      "localhost:9000",
		Bucket:        "mathemania",
		PublicBaseURL: "https://cdn.example/",
	})
	if err != nil {
		t.Fatalf("new minio: %v", err)
	}
	if !strings.HasPrefix(custom.baseURL, "https://cdn.example") || strings.HasSuffix(custom.baseURL, "/") {
		t.Fatalf("unexpected base url %q", custom.baseURL)
	}
}
