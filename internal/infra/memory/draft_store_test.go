package memory

import (
	"context"
	"errors"
	"testing"

	"mathemania-service/internal/domain"
)

func TestDraftStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewDraftStore()

	answers := domain.Answers{1: domain.Choices("A"), 21: domain.Value("42")}
	if err := store.Save(ctx, "s1", answers); err != nil {
		t.Fatalf("save: %v", err)
	}

	// mutating the caller's map must not leak into the store
	answers[1] = domain.Choices("B")

	got, err := store.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got[1].Options[0] != "A" || got[21].Value != "42" {
		t.Fatalf("unexpected draft %+v", got)
	}

	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := store.Load(ctx, "s1"); !errors.Is(err, domain.ErrDraftNotFound) {
		t.Fatalf("expected draft removed, got %v", err)
	}
}
