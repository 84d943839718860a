// Package activity implements the debounced "running" highlight of command nodes.
//
// Activation is shown immediately. Deactivation is held for a short period and only
// applied by a timer if no active observation arrives meanwhile, so activity that
// toggles within a poll cycle does not make the highlight strobe.
package activity

import (
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/ports"
)

// DefaultHold is how long a node keeps its highlight after it was last observed active.
const DefaultHold = 100 * time.Millisecond

// Hooks observe timer bookkeeping. Any field may be nil.
type Hooks struct {
	OnArm    func(id string)
	OnCancel func(id string)
	OnExpire func(id string)
}

type entry struct {
	phase domain.Phase
	token ports.TimerToken // zero when no timer is pending
}

// Store maps node identity to its debounce state.
// All mutations, from Update and from firing timers, are serialized by one mutex.
type Store struct {
	mu        sync.Mutex
	scheduler ports.Scheduler
	hold      time.Duration
	data      map[string]*entry
	order     []string
	lastToken ports.TimerToken

	listener func(id string)
	hooks    Hooks
	logger   *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithHold overrides DefaultHold.
func WithHold(d time.Duration) Option {
	return func(s *Store) {
		s.hold = d
	}
}

// WithHooks registers timer observers.
func WithHooks(h Hooks) Option {
	return func(s *Store) {
		s.hooks = h
	}
}

// WithLogger configures a logger for the Store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store that arms deactivation timers on scheduler.
func NewStore(scheduler ports.Scheduler, opts ...Option) *Store {
	s := &Store{
		scheduler: scheduler,
		hold:      DefaultHold,
		data:      make(map[string]*entry),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnDeactivate registers the callback run after a timer has turned id inactive.
// It runs on the scheduler's goroutine, outside the store lock.
func (s *Store) OnDeactivate(fn func(id string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = fn
}

// Update feeds the instantaneous activity observed for id in this pass and
// returns whether the node should be displayed active.
func (s *Store) Update(id string, observed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.lookup(id)
	switch e.phase {
	case domain.PhaseInactive:
		if observed {
			e.phase = domain.PhaseActiveHeld
		}
	case domain.PhaseActiveHeld:
		if !observed {
			e.phase = domain.PhasePendingDeactivate
			s.arm(id, e)
		}
	case domain.PhasePendingDeactivate:
		// A repeated inactive observation leaves the running timer alone.
		if observed {
			s.cancel(id, e)
			e.phase = domain.PhaseActiveHeld
		}
	}
	return e.phase.Displayed()
}

// Display returns whether id is currently highlighted.
func (s *Store) Display(id string) bool {
	return s.Phase(id).Displayed()
}

// Phase returns the current phase of id, PhaseInactive if unknown.
func (s *Store) Phase(id string) domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.data[id]; ok {
		return e.phase
	}
	return domain.PhaseInactive
}

// Pending returns the number of armed deactivation timers.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.data {
		if e.token != 0 {
			n++
		}
	}
	return n
}

// Retain drops the highlight of every identity not present in seen,
// cancelling its pending timer so it cannot fire against a node that later
// takes over the same identity.
func (s *Store) Retain(seen map[string]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.data {
		if _, ok := seen[id]; ok {
			continue
		}
		if e.token != 0 {
			s.cancel(id, e)
		}
		e.phase = domain.PhaseInactive
	}
}

// Serialize returns the displayed activity of every entry in first-seen order.
// Pending timers are not part of the result.
func (s *Store) Serialize() []domain.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]domain.Entry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, domain.Entry{ID: id, Value: s.data[id].phase.Displayed()})
	}
	return entries
}

// RestoreFrom merges saved entries: true restores a held highlight, false an inactive one.
// Timers pending on overwritten ids are cancelled.
func (s *Store) RestoreFrom(entries []domain.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, saved := range entries {
		e := s.lookup(saved.ID)
		if e.token != 0 {
			s.cancel(saved.ID, e)
		}
		if saved.Value {
			e.phase = domain.PhaseActiveHeld
		} else {
			e.phase = domain.PhaseInactive
		}
	}
}

func (s *Store) lookup(id string) *entry {
	e, ok := s.data[id]
	if !ok {
		e = &entry{phase: domain.PhaseInactive}
		s.data[id] = e
		s.order = append(s.order, id)
	}
	return e
}

// arm and cancel must be called with s.mu held.
func (s *Store) arm(id string, e *entry) {
	s.lastToken++
	token := s.lastToken
	e.token = token
	s.scheduler.Arm(token, s.hold, func() { s.expire(id, token) })
	s.logger.Debug("Deactivation armed", "node_id", id, "token", token, "hold", s.hold)
	if s.hooks.OnArm != nil {
		s.hooks.OnArm(id)
	}
}

func (s *Store) cancel(id string, e *entry) {
	s.scheduler.Cancel(e.token)
	s.logger.Debug("Deactivation cancelled", "node_id", id, "token", e.token)
	e.token = 0
	if s.hooks.OnCancel != nil {
		s.hooks.OnCancel(id)
	}
}

func (s *Store) expire(id string, token ports.TimerToken) {
	s.mu.Lock()
	e, ok := s.data[id]
	if !ok || e.token != token || e.phase != domain.PhasePendingDeactivate {
		s.mu.Unlock()
		s.logger.Debug("Stale deactivation ignored", "node_id", id, "token", token)
		return
	}
	e.phase = domain.PhaseInactive
	e.token = 0
	listener := s.listener
	s.mu.Unlock()

	s.logger.Debug("Deactivation applied", "node_id", id)
	if s.hooks.OnExpire != nil {
		s.hooks.OnExpire(id)
	}
	if listener != nil {
		listener(id)
	}
}
