package redis

import (
	"context"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// Source implements ports.SnapshotSource by reading a string key that a
// telemetry bridge keeps up to date.
type Source struct {
	client *backend.Client
	key    string
}

// NewSource reads the payload from key.
func NewSource(client *backend.Client, key string) *Source {
	return &Source{client: client, key: key}
}

// Fetch implements ports.SnapshotSource. A missing key yields a nil payload.
func (s *Source) Fetch(ctx context.Context) (*string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s from redis: %w", s.key, err)
	}
	return &val, nil
}
