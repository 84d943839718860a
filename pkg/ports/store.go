package ports

import (
	"context"

	"github.com/aretw0/cmdtree/pkg/domain"
)

// ViewStore defines the interface for persisting saved view state.
// It lets expansion and highlight state survive a restart of the host.
type ViewStore interface {
	// Save persists the state for a given view ID.
	Save(ctx context.Context, viewID string, state *domain.ViewState) error

	// Load retrieves the state for a given view ID.
	// Returns domain.ErrViewNotFound if the view does not exist.
	Load(ctx context.Context, viewID string) (*domain.ViewState, error)

	// Delete removes the state for a given view ID.
	Delete(ctx context.Context, viewID string) error

	// List returns the IDs of every saved view.
	List(ctx context.Context) ([]string, error)
}
