// Package history owns the canonical list of completed kit records. The list
// lives in memory behind one lock, is persisted through the durable state port
// after every mutation, and is always ordered strictly descending by
// timestamp.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"botagent/internal/domain"
	"botagent/internal/state"
)

const stateKey = "marketing_history"

// Service is the history list plus its persistence.
type Service struct {
	mu    sync.Mutex
	store state.Store
	items []domain.HistoryItem
}

func New(store state.Store) *Service {
	return &Service{store: store}
}

// Load restores the persisted list. An absent key means an empty history.
func (s *Service) Load(ctx context.Context) error {
	data, err := s.store.Load(ctx, stateKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("history: load: %w", err)
	}
	var items []domain.HistoryItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("history: decode: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
	s.sortLocked()
	return nil
}

// Add inserts a completed record and persists the list. The timestamp-ordering
// invariant holds even when pipeline completions race. When persistence fails
// the insert is rolled back, so a run that reports a persistence error never
// leaves a record visible in memory.
func (s *Service) Add(ctx context.Context, item domain.HistoryItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.items
	s.items = append([]domain.HistoryItem{item}, s.items...)
	s.sortLocked()
	if err := s.persistLocked(ctx); err != nil {
		s.items = prev
		return err
	}
	return nil
}

// MarkDownloaded flips the download flag on one record.
func (s *Service) MarkDownloaded(ctx context.Context, id string) error {
	return s.update(ctx, id, func(item *domain.HistoryItem) {
		item.IsDownloaded = true
	})
}

// SetVideoKey records the blob key of an on-demand video render.
func (s *Service) SetVideoKey(ctx context.Context, id, key string) error {
	return s.update(ctx, id, func(item *domain.HistoryItem) {
		item.VideoBlobKey = key
	})
}

func (s *Service) update(ctx context.Context, id string, mutate func(*domain.HistoryItem)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			mutate(&s.items[i])
			return s.persistLocked(ctx)
		}
	}
	return fmt.Errorf("history: item %q: %w", id, domain.ErrNotFound)
}

// Get returns one record by id.
func (s *Service) Get(id string) (domain.HistoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.HistoryItem{}, false
}

// Items returns a copy of the list, newest first.
func (s *Service) Items() []domain.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.HistoryItem(nil), s.items...)
}

func (s *Service) sortLocked() {
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Timestamp > s.items[j].Timestamp
	})
}

func (s *Service) persistLocked(ctx context.Context) error {
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("history: encode: %w", err)
	}
	if err := s.store.Save(ctx, stateKey, data); err != nil {
		return fmt.Errorf("history: persist: %w", err)
	}
	return nil
}
