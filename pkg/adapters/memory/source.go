package memory

import (
	"context"
	"sync"
)

// Source implements ports.SnapshotSource over a payload set by the host,
// e.g. pushed over HTTP or seeded by tests.
type Source struct {
	mu      sync.RWMutex
	payload *string
	updates chan struct{}
}

// NewSource creates a source with no payload.
func NewSource() *Source {
	return &Source{updates: make(chan struct{}, 1)}
}

// Set replaces the payload and wakes up a waiting driver.
func (s *Source) Set(payload string) {
	s.mu.Lock()
	s.payload = &payload
	s.mu.Unlock()
	s.notify()
}

// Clear removes the payload, as if the telemetry key disappeared.
func (s *Source) Clear() {
	s.mu.Lock()
	s.payload = nil
	s.mu.Unlock()
	s.notify()
}

// Fetch implements ports.SnapshotSource.
func (s *Source) Fetch(ctx context.Context) (*string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.payload == nil {
		return nil, nil
	}
	p := *s.payload
	return &p, nil
}

// Updates signals after every Set or Clear. Signals coalesce.
func (s *Source) Updates() <-chan struct{} {
	return s.updates
}

func (s *Source) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}
