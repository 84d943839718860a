package viewstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed holder can block a view.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates view state access.
// Unused per-view locks are reference counted and dropped.
type Manager struct {
	store ports.ViewStore

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager on top of store.
func NewManager(store ports.ViewStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(viewID) after unlocking.
func (m *Manager) acquire(viewID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[viewID]
	if !exists {
		entry = &lockEntry{}
		m.locks[viewID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(viewID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[viewID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, viewID)
	}
}

// Load retrieves a saved view.
func (m *Manager) Load(ctx context.Context, viewID string) (*domain.ViewState, error) {
	var state *domain.ViewState
	err := m.WithLock(ctx, viewID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, viewID)
		return err
	})
	return state, err
}

// LoadOrEmpty loads a saved view, returning an empty state when none exists yet.
// Nothing is persisted for a missing view.
func (m *Manager) LoadOrEmpty(ctx context.Context, viewID string) (*domain.ViewState, error) {
	state, err := m.Load(ctx, viewID)
	if errors.Is(err, domain.ErrViewNotFound) {
		return domain.NewViewState(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load view %q: %w", viewID, err)
	}
	return state, nil
}

// Save persists the view state.
func (m *Manager) Save(ctx context.Context, viewID string, state *domain.ViewState) error {
	return m.WithLock(ctx, viewID, func(ctx context.Context) error {
		return m.store.Save(ctx, viewID, state)
	})
}

// Delete removes the view from the store.
func (m *Manager) Delete(ctx context.Context, viewID string) error {
	return m.WithLock(ctx, viewID, func(ctx context.Context) error {
		return m.store.Delete(ctx, viewID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying view store.
func (m *Manager) Store() ports.ViewStore {
	return m.store
}

// WithLock executes fn while holding the lock for the view.
func (m *Manager) WithLock(ctx context.Context, viewID string, fn func(context.Context) error) error {
	entry := m.acquire(viewID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(viewID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, viewID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"view_id", viewID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
