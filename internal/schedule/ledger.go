package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"botagent/internal/domain"
	"botagent/internal/state"
)

const ledgerStateKey = "agent_lastRuns"

// Ledger records which slot-days have already fired. An entry, once present,
// is never fired again for that date; this is the at-most-once guarantee, so
// it must be persisted before the corresponding dispatch happens.
type Ledger struct {
	mu    sync.Mutex
	store state.Store
	runs  map[string]int64
}

func NewLedger(store state.Store) *Ledger {
	return &Ledger{store: store, runs: make(map[string]int64)}
}

// Load restores persisted entries. An absent key means a fresh ledger.
func (l *Ledger) Load(ctx context.Context) error {
	data, err := l.store.Load(ctx, ledgerStateKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("ledger: load: %w", err)
	}
	runs := make(map[string]int64)
	if err := json.Unmarshal(data, &runs); err != nil {
		return fmt.Errorf("ledger: decode: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs = runs
	return nil
}

// HasRun reports whether the slot key already fired.
func (l *Ledger) HasRun(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.runs[key]
	return ok
}

// MarkRun records the slot key and persists the ledger synchronously. The
// entry stays marked even when persistence fails, so the caller must treat an
// error as "slot consumed, do not dispatch": skipping a run is recoverable,
// a duplicate run is not.
func (l *Ledger) MarkRun(ctx context.Context, key string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runs[key] = at.UnixMilli()
	return l.persistLocked(ctx)
}

// Prune drops entries whose slot date is before the cutoff day. Observable
// behavior is unchanged: pruned entries are always in the past and the due
// check only ever consults the current date.
func (l *Ledger) Prune(ctx context.Context, cutoff time.Time) error {
	day := cutoff.Format("2006-01-02")
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := false
	for key := range l.runs {
		if len(key) >= len(day) && key[:len(day)] < day {
			delete(l.runs, key)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return l.persistLocked(ctx)
}

// Len reports the number of recorded entries.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.runs)
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(l.runs)
	if err != nil {
		return fmt.Errorf("ledger: encode: %w", err)
	}
	if err := l.store.Save(ctx, ledgerStateKey, data); err != nil {
		return fmt.Errorf("ledger: persist: %w", err)
	}
	return nil
}
