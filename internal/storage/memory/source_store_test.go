package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

func validSource(id string) *domain.MonitoredSource {
	return &domain.MonitoredSource{
		ID:           id,
		Type:         domain.SourceFeed,
		Identifier:   "https://example.com/feed.xml",
		Name:         "example feed",
		Active:       true,
		Weight:       1,
		ScanInterval: time.Minute,
		AddedAt:      time.Now(),
	}
}

func TestSourceStore_InsertValidation(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	bad := validSource("s1")
	bad.ScanInterval = time.Second // below the minimum
	if err := store.Insert(ctx, bad); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	if err := store.Insert(ctx, validSource("s1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if err := store.Insert(ctx, validSource("s1")); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestSourceStore_UpdateErrorCount(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	if err := store.Insert(ctx, validSource("s1")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	src, err := store.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	src.ErrorCount = 10
	src.Active = false
	if err := store.Update(ctx, src); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "s1")
	if got.ErrorCount != 10 || got.Active {
		t.Errorf("update not persisted: errorCount=%d active=%v", got.ErrorCount, got.Active)
	}

	active, _ := store.GetActive(ctx)
	if len(active) != 0 {
		t.Errorf("deactivated source still listed as active")
	}
}

func TestSourceStore_CopyOnReadFilters(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	src := validSource("s1")
	src.Keywords = []string{"pump"}
	if err := store.Insert(ctx, src); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, _ := store.GetByID(ctx, "s1")
	got.Keywords[0] = "mutated"

	again, _ := store.GetByID(ctx, "s1")
	if again.Keywords[0] != "pump" {
		t.Errorf("store leaked keyword slice: %v", again.Keywords)
	}
}
