// Package expansion remembers which sections and groups the user has expanded.
package expansion

import (
	"sync"

	"github.com/aretw0/cmdtree/pkg/domain"
)

// Store maps node identity to expanded/collapsed.
// Entries are created on first lookup and never evicted; identities that stop
// appearing simply linger, bounded by the distinct identities ever seen.
// Safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	data  map[string]bool
	order []string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{data: make(map[string]bool)}
}

// Default is the expansion of an identity that has never been seen:
// sections start expanded, nested groups start collapsed.
func Default(id string) bool {
	return domain.IsSectionID(id)
}

// Get returns the expansion of id, recording the default on first encounter.
func (s *Store) Get(id string) bool {
	s.mu.RLock()
	expanded, ok := s.data[id]
	s.mu.RUnlock()
	if ok {
		return expanded
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if expanded, ok := s.data[id]; ok {
		return expanded
	}
	expanded = Default(id)
	s.put(id, expanded)
	return expanded
}

// Set records the expansion of id.
func (s *Store) Set(id string, expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(id, expanded)
}

// Serialize returns every entry in first-seen order.
func (s *Store) Serialize() []domain.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.Entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, domain.Entry{ID: id, Value: s.data[id]})
	}
	return entries
}

// RestoreFrom merges entries into the store. Matching ids are overwritten,
// others are left untouched. Restoring into an empty store reproduces it exactly.
func (s *Store) RestoreFrom(entries []domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.put(e.ID, e.Value)
	}
}

// Len returns the number of known identities.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

func (s *Store) put(id string, expanded bool) {
	if _, ok := s.data[id]; !ok {
		s.order = append(s.order, id)
	}
	s.data[id] = expanded
}
