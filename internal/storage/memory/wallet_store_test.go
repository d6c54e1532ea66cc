package memory

import (
	"context"
	"testing"

	"token-launchpad/internal/storage"
)

func TestWalletStore_GetOrCreateZeroedDefaults(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	p, err := store.GetOrCreate(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}
	if p.Points != 0 || p.TotalVolumeUSD != 0 || len(p.Quests) != 0 {
		t.Errorf("New profile should be zeroed, got %+v", p)
	}

	// Second call returns the same profile, not a fresh one
	if err := store.AddVolume(ctx, "Wallet1", 5); err != nil {
		t.Fatalf("AddVolume failed: %v", err)
	}
	p2, err := store.GetOrCreate(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("Second GetOrCreate failed: %v", err)
	}
	if p2.TotalVolumeUSD != 5 {
		t.Errorf("Expected volume 5, got %v", p2.TotalVolumeUSD)
	}
}

func TestWalletStore_UnlockIdempotent(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	added, err := store.Unlock(ctx, "Wallet1", "first_trade", 100)
	if err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}
	if !added {
		t.Error("First unlock should report newly added")
	}

	// Re-unlocking is a no-op: no duplicate ID, no double points
	added, err = store.Unlock(ctx, "Wallet1", "first_trade", 100)
	if err != nil {
		t.Fatalf("Second unlock failed: %v", err)
	}
	if added {
		t.Error("Second unlock should be a no-op")
	}

	p, err := store.Get(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Points != 100 {
		t.Errorf("Expected 100 points, got %d", p.Points)
	}
	if len(p.Quests) != 1 {
		t.Errorf("Expected exactly one unlocked quest, got %v", p.Quests)
	}
}

func TestWalletStore_RecordFlipStreak(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	// profitable, profitable, unprofitable, profitable => 1, 2, 0, 1
	want := []int{1, 2, 0, 1}
	outcomes := []bool{true, true, false, true}
	for i, profitable := range outcomes {
		streak, err := store.RecordFlip(ctx, "Wallet1", profitable)
		if err != nil {
			t.Fatalf("RecordFlip %d failed: %v", i, err)
		}
		if streak != want[i] {
			t.Errorf("Flip %d: expected streak %d, got %d", i, want[i], streak)
		}
	}

	p, err := store.Get(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.ProfitableFlips != 3 {
		t.Errorf("Expected 3 lifetime flips, got %d", p.ProfitableFlips)
	}
}

func TestWalletStore_RecordBuyPositions(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	if err := store.RecordBuy(ctx, "Wallet1", "Mint1", 10, 2000); err != nil {
		t.Fatalf("RecordBuy failed: %v", err)
	}
	if err := store.RecordBuy(ctx, "Wallet1", "Mint1", 30, 1000); err != nil {
		t.Fatalf("RecordBuy failed: %v", err)
	}

	p, err := store.Get(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	pos := p.Position("Mint1")
	if pos == nil {
		t.Fatal("Expected position for Mint1")
	}
	if pos.BuyCount != 2 || pos.BuyVolumeUSD != 40 {
		t.Errorf("Unexpected aggregates: %+v", pos)
	}
	if pos.FirstBuyAt != 1000 {
		t.Errorf("FirstBuyAt should track the earliest buy, got %d", pos.FirstBuyAt)
	}
}

func TestWalletStore_CopyOut(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	p, err := store.GetOrCreate(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("GetOrCreate failed: %v", err)
	}

	// Mutating the returned copy must not affect stored state
	p.Points = 999
	p.Quests = append(p.Quests, "fake")

	got, err := store.Get(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Points != 0 || len(got.Quests) != 0 {
		t.Errorf("Stored profile was mutated through a copy: %+v", got)
	}
}

func TestWalletStore_GetOrCreateEmptyWallet(t *testing.T) {
	store := NewWalletStore()
	ctx := context.Background()

	if _, err := store.GetOrCreate(ctx, ""); err != storage.ErrInvalidInput {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
