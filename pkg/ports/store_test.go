package ports_test

import (
	"context"
	"slices"
	"testing"

	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/ports"
)

// MockStore is an in-memory implementation of ViewStore for testing purposes.
type MockStore struct {
	data map[string]*domain.ViewState
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.ViewState),
	}
}

func (m *MockStore) Save(ctx context.Context, viewID string, state *domain.ViewState) error {
	m.data[viewID] = &domain.ViewState{
		Expansion: slices.Clone(state.Expansion),
		Active:    slices.Clone(state.Active),
	}
	return nil
}

func (m *MockStore) Load(ctx context.Context, viewID string) (*domain.ViewState, error) {
	state, ok := m.data[viewID]
	if !ok {
		return nil, domain.ErrViewNotFound
	}
	return &domain.ViewState{
		Expansion: slices.Clone(state.Expansion),
		Active:    slices.Clone(state.Active),
	}, nil
}

func (m *MockStore) Delete(ctx context.Context, viewID string) error {
	delete(m.data, viewID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestMockStore_Contract(t *testing.T) {
	ports.RunViewStoreContract(t, NewMockStore())
}
