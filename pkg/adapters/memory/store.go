package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/aretw0/cmdtree/pkg/domain"
)

// Store implements ports.ViewStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.ViewState
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.ViewState),
	}
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, viewID string, state *domain.ViewState) error {
	copied := cloneState(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[viewID] = copied
	return nil
}

// Load retrieves the state from memory.
func (s *Store) Load(ctx context.Context, viewID string) (*domain.ViewState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[viewID]
	if !ok {
		return nil, domain.ErrViewNotFound
	}
	// Copy on read so the caller can't mutate the stored state through the pointer.
	return cloneState(state), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, viewID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, viewID)
	return nil
}

// List returns saved views in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	views := make([]string, 0, len(s.data))
	for id := range s.data {
		views = append(views, id)
	}
	sort.Strings(views)
	return views, nil
}

func cloneState(state *domain.ViewState) *domain.ViewState {
	if state == nil {
		return domain.NewViewState()
	}
	return &domain.ViewState{
		Expansion: slices.Clone(state.Expansion),
		Active:    slices.Clone(state.Active),
	}
}
