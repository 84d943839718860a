// Package file persists view state as JSON files and reads the command tree
// payload from a file kept up to date by a telemetry bridge.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/cmdtree/pkg/domain"
)

// Store implements ports.ViewStore using the local filesystem.
// Each view is stored as <BasePath>/<viewID>.json.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".cmdtree/views".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".cmdtree", "views")
	}
	return &Store{BasePath: basePath}
}

func (s *Store) path(viewID string) (string, error) {
	if viewID == "" {
		return "", fmt.Errorf("viewID cannot be empty")
	}
	if strings.ContainsAny(viewID, `/\`) {
		return "", fmt.Errorf("viewID %q must not contain path separators", viewID)
	}
	return filepath.Join(s.BasePath, viewID+".json"), nil
}

// Save writes the view state atomically: temp file, fsync, rename.
func (s *Store) Save(ctx context.Context, viewID string, state *domain.ViewState) error {
	destPath, err := s.path(viewID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure view directory: %w", err)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal view state: %w", err)
	}

	// Same directory so the rename stays on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+viewID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing view file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to view file: %w", err)
	}
	return nil
}

// Load reads the view state from its JSON file.
func (s *Store) Load(ctx context.Context, viewID string) (*domain.ViewState, error) {
	filePath, err := s.path(viewID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrViewNotFound
		}
		return nil, fmt.Errorf("failed to read view file: %w", err)
	}

	var state domain.ViewState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal view state: %w", err)
	}
	return &state, nil
}

// Delete removes the view file.
func (s *Store) Delete(ctx context.Context, viewID string) error {
	filePath, err := s.path(viewID)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete view file: %w", err)
	}
	return nil
}

// List returns all saved view IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list views: %w", err)
	}

	var views []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		views = append(views, strings.TrimSuffix(name, ".json"))
	}
	return views, nil
}
