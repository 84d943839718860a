package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// Source implements ports.SnapshotSource by reading a whole file per fetch.
type Source struct {
	Path   string
	logger *slog.Logger
}

// NewSource reads the payload from path.
func NewSource(path string, logger *slog.Logger) *Source {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Source{Path: path, logger: logger}
}

// Fetch implements ports.SnapshotSource. A missing file yields a nil payload.
func (s *Source) Fetch(ctx context.Context) (*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read payload file: %w", err)
	}
	payload := string(data)
	return &payload, nil
}

// Watch emits whenever the payload file is written, created, renamed or removed.
// It watches the parent directory so that atomic replace-by-rename is seen.
// The channel is closed when ctx is done.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	dir := filepath.Dir(s.Path)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.Path)
	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("Payload watcher error", "path", s.Path, "err", err)
			}
		}
	}()
	return out, nil
}
