package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunViewStoreContract runs a suite of tests to verify that a ViewStore implementation
// adheres to the defined interface contract.
func RunViewStoreContract(t *testing.T, store ViewStore) {
	ctx := context.Background()
	viewID := "contract-test-view-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		state := &domain.ViewState{
			Expansion: []domain.Entry{
				{ID: "subsystem-0", Value: false},
				{ID: "subsystem-0/Drive", Value: true},
			},
			Active: []domain.Entry{{ID: "subsystem-0/Drive/1/Turn", Value: true}},
		}

		err := store.Save(ctx, viewID, state)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, viewID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, state.Expansion, loaded.Expansion, "expansion order must be preserved")
		assert.Equal(t, state.Active, loaded.Active)
	})

	t.Run("Saved state is isolated from caller", func(t *testing.T) {
		state := &domain.ViewState{Expansion: []domain.Entry{{ID: "scheduled", Value: true}}}
		require.NoError(t, store.Save(ctx, viewID, state))
		state.Expansion[0].Value = false

		loaded, err := store.Load(ctx, viewID)
		require.NoError(t, err)
		require.Len(t, loaded.Expansion, 1)
		assert.True(t, loaded.Expansion[0].Value)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+viewID)
		assert.ErrorIs(t, err, domain.ErrViewNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, viewID, domain.NewViewState())
		require.NoError(t, err)

		err = store.Delete(ctx, viewID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, viewID)
		assert.ErrorIs(t, err, domain.ErrViewNotFound, "Load after Delete should return ErrViewNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := viewID + "-1"
		id2 := viewID + "-2"
		_ = store.Save(ctx, id1, domain.NewViewState())
		_ = store.Save(ctx, id2, domain.NewViewState())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		views, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, views, id1)
		assert.Contains(t, views, id2)
	})
}
