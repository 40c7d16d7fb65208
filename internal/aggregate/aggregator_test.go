package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/provider"
)

type fakeMarket struct {
	name string
	snap *domain.MarketSnapshot
	err  error
}

func (f *fakeMarket) Name() string { return f.name }

func (f *fakeMarket) TokenMarket(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

func marketSnap(liquidity, volume float64) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		TokenAddress: "tok",
		CapturedAt:   time.Now().UTC(),
		Liquidity:    liquidity,
		Volume24h:    volume,
		Fields:       domain.FieldMask(0).With(domain.FieldLiquidity).With(domain.FieldVolume24h),
		Providers:    []string{"fake"},
	}
}

func TestSnapshotTakesConservativeValue(t *testing.T) {
	a := New([]provider.MarketProvider{
		&fakeMarket{name: "a", snap: marketSnap(100, 50_000)},
		&fakeMarket{name: "b", snap: marketSnap(120, 48_000)},
	}, zerolog.Nop())

	snap, err := a.Snapshot(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Liquidity != 100 {
		t.Errorf("Liquidity = %v, want 100", snap.Liquidity)
	}
	if snap.Volume24h != 48_000 {
		t.Errorf("Volume24h = %v, want 48000", snap.Volume24h)
	}
	if len(snap.Providers) != 2 {
		t.Errorf("Providers = %v, want 2 entries", snap.Providers)
	}
}

func TestSnapshotSingleFieldComesThrough(t *testing.T) {
	withHolders := &domain.MarketSnapshot{
		TokenAddress: "tok",
		HolderCount:  340,
		Fields:       domain.FieldMask(0).With(domain.FieldHolderCount),
		Providers:    []string{"b"},
	}
	a := New([]provider.MarketProvider{
		&fakeMarket{name: "a", snap: marketSnap(100, 50_000)},
		&fakeMarket{name: "b", snap: withHolders},
	}, zerolog.Nop())

	snap, err := a.Snapshot(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.HolderCount != 340 {
		t.Errorf("HolderCount = %d, want 340", snap.HolderCount)
	}
	if !snap.Fields.Has(domain.FieldLiquidity) || !snap.Fields.Has(domain.FieldHolderCount) {
		t.Errorf("mask missing merged fields: %b", snap.Fields)
	}
}

func TestSnapshotToleratesPartialFailure(t *testing.T) {
	a := New([]provider.MarketProvider{
		&fakeMarket{name: "a", err: errors.New("boom")},
		&fakeMarket{name: "b", snap: marketSnap(100, 50_000)},
	}, zerolog.Nop())

	snap, err := a.Snapshot(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Liquidity != 100 {
		t.Errorf("Liquidity = %v, want 100", snap.Liquidity)
	}
}

func TestSnapshotAllFailed(t *testing.T) {
	a := New([]provider.MarketProvider{
		&fakeMarket{name: "a", err: errors.New("boom")},
		&fakeMarket{name: "b", err: errors.New("boom")},
	}, zerolog.Nop())

	snap, err := a.Snapshot(context.Background(), "tok")
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if !snap.Fields.IsEmpty() {
		t.Errorf("expected empty snapshot, got mask %b", snap.Fields)
	}
}
