package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/cmdtree/pkg/adapters/file"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	ports.RunViewStoreContract(t, file.New(t.TempDir()))
}

func TestFileStore_RejectsPathTraversal(t *testing.T) {
	store := file.New(t.TempDir())
	err := store.Save(context.Background(), "../escape", domain.NewViewState())
	assert.Error(t, err)

	_, err = store.Load(context.Background(), "")
	assert.Error(t, err)
}

func TestFileStore_ListSkipsTempFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	require.NoError(t, store.Save(context.Background(), "main", domain.NewViewState()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tmp-main-123.json"), []byte("{}"), 0644))

	views, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, views)
}

func TestFileSource_Fetch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	src := file.NewSource(path, nil)
	ctx := context.Background()

	got, err := src.Fetch(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, os.WriteFile(path, []byte(`{"scheduled":[]}`), 0644))
	got, err = src.Fetch(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, `{"scheduled":[]}`, *got)
}

func TestFileSource_Watch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	src := file.NewSource(path, nil)

	ctx, cancel := context.WithCancel(context.Background())
	changes, err := src.Watch(ctx)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0644))
	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}

	cancel()
	assert.Eventually(t, func() bool {
		select {
		case _, ok := <-changes:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}
