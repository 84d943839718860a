package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/cmdtree/pkg/adapters/memory"
	"github.com/aretw0/cmdtree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunViewStoreContract(t, store)
}

func TestMemorySource(t *testing.T) {
	ctx := context.Background()
	src := memory.NewSource()

	got, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	src.Set(`{"scheduled":[]}`)
	src.Set(`{"subsystems":[]}`)
	got, err = src.Fetch(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"subsystems":[]}`, *got)

	select {
	case <-src.Updates():
	default:
		t.Fatal("expected a coalesced update signal")
	}

	src.Clear()
	got, err = src.Fetch(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Fetch(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}
