package schedule

import (
	"context"
	"testing"
	"time"

	"botagent/internal/state"
)

func TestLedgerRoundTrip(t *testing.T) {
	store := state.NewMemoryStore()
	ctx := context.Background()

	first := NewLedger(store)
	if err := first.Load(ctx); err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if err := first.MarkRun(ctx, "2026-03-14_pt_long_batch_6:0", time.Now()); err != nil {
		t.Fatalf("mark: %v", err)
	}

	second := NewLedger(store)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !second.HasRun("2026-03-14_pt_long_batch_6:0") {
		t.Fatalf("entry lost across reload")
	}
	if second.HasRun("2026-03-15_pt_long_batch_6:0") {
		t.Fatalf("unexpected entry for next day")
	}
}

func TestLedgerMarkStaysOnPersistFailure(t *testing.T) {
	store := &failingStore{Store: state.NewMemoryStore(), failKey: ledgerStateKey}
	ledger := NewLedger(store)
	ctx := context.Background()

	if err := ledger.MarkRun(ctx, "key", time.Now()); err == nil {
		t.Fatalf("expected persist error")
	}
	// The in-memory entry must survive so the slot is not dispatched twice.
	if !ledger.HasRun("key") {
		t.Fatalf("entry rolled back after persist failure")
	}
}

func TestLedgerPruneDropsOldDates(t *testing.T) {
	store := state.NewMemoryStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	keys := []string{
		"2026-02-01_pt_long_batch_6:0",
		"2026-03-10_en_short_9:20",
		"2026-03-14_es_short_9:40",
	}
	for _, key := range keys {
		if err := ledger.MarkRun(ctx, key, time.Now()); err != nil {
			t.Fatalf("mark %s: %v", key, err)
		}
	}

	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := ledger.Prune(ctx, cutoff); err != nil {
		t.Fatalf("prune: %v", err)
	}
	if ledger.HasRun(keys[0]) {
		t.Fatalf("stale entry survived prune")
	}
	if !ledger.HasRun(keys[1]) || !ledger.HasRun(keys[2]) {
		t.Fatalf("recent entries pruned")
	}
	if ledger.Len() != 2 {
		t.Fatalf("len = %d, want 2", ledger.Len())
	}
}
