package cmdtree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cmdtree/internal/metrics"
	"github.com/aretw0/cmdtree/pkg/activity"
	"github.com/aretw0/cmdtree/pkg/adapters/clock"
	"github.com/aretw0/cmdtree/pkg/decoder"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/expansion"
	"github.com/aretw0/cmdtree/pkg/ports"
	"github.com/aretw0/cmdtree/pkg/reconciler"
	"github.com/aretw0/cmdtree/pkg/viewstate"
)

// Viewer is the high-level entry point of the library.
// It owns one decoder, both state stores and the reconciler driving a RenderSink.
type Viewer struct {
	// mu keeps decode and render of one payload together, so a slower caller
	// cannot draw an older tree after a newer payload was memoized.
	mu         sync.Mutex
	decoder    *decoder.Decoder
	expansion  *expansion.Store
	activity   *activity.Store
	reconciler *reconciler.Reconciler

	scheduler ports.Scheduler
	ownClock  *clock.Real
	hold      time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Viewer.
type Option func(*Viewer)

// WithHold overrides the deactivation hold (default activity.DefaultHold).
func WithHold(d time.Duration) Option {
	return func(v *Viewer) {
		v.hold = d
	}
}

// WithScheduler injects the timer source used for deactivation holds.
// Without it the Viewer arms real timers and Close stops them.
func WithScheduler(s ports.Scheduler) Option {
	return func(v *Viewer) {
		v.scheduler = s
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Viewer) {
		v.logger = logger
	}
}

// WithMetrics records renders, decode failures and timers on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Viewer) {
		v.metrics = m
	}
}

// Outcome describes what one Update did.
type Outcome struct {
	// Rendered is true when the tree was rebuilt.
	Rendered bool
	Stats    reconciler.Stats
	// Malformed counts nodes skipped by the decoder.
	Malformed int
}

// New creates a Viewer rendering into sink. The sink starts out untouched;
// the first Update materializes the tree or the placeholder.
func New(sink ports.RenderSink, opts ...Option) (*Viewer, error) {
	if sink == nil {
		return nil, fmt.Errorf("a render sink is required")
	}
	v := &Viewer{
		hold: activity.DefaultHold,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if v.scheduler == nil {
		v.ownClock = clock.NewReal()
		v.scheduler = v.ownClock
	}

	actOpts := []activity.Option{
		activity.WithHold(v.hold),
		activity.WithLogger(v.logger),
	}
	if v.metrics != nil {
		actOpts = append(actOpts, activity.WithHooks(v.metrics.ActivityHooks()))
	}

	v.decoder = decoder.New(decoder.WithLogger(v.logger))
	v.expansion = expansion.NewStore()
	v.activity = activity.NewStore(v.scheduler, actOpts...)
	v.reconciler = reconciler.New(sink, v.expansion, v.activity, reconciler.WithLogger(v.logger))
	return v, nil
}

// Update decodes raw and rebuilds the tree when the payload changed.
//
// A nil or unparsable payload leaves the current render in place and returns an
// error matching domain.ErrDecode. Malformed nodes do not prevent the render;
// they are returned joined, each matching domain.ErrMalformedNode.
func (v *Viewer) Update(raw *string) (Outcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	res, err := v.decoder.Decode(raw)
	if errors.Is(err, domain.ErrDecode) {
		if v.metrics != nil {
			v.metrics.DecodeErrors.Inc()
		}
		return Outcome{}, err
	}

	out := Outcome{Malformed: countMalformed(err)}
	if out.Malformed > 0 && v.metrics != nil {
		v.metrics.MalformedNodes.Add(float64(out.Malformed))
	}
	if !res.Changed {
		return out, err
	}

	out.Rendered = true
	out.Stats = v.reconciler.Render(res.Snapshot)
	if v.metrics != nil {
		v.metrics.ObserveRender(out.Stats.Nodes, out.Stats.Displayed)
	}
	return out, err
}

// Poll fetches one payload from source and applies it.
func (v *Viewer) Poll(ctx context.Context, source ports.SnapshotSource) (Outcome, error) {
	raw, err := source.Fetch(ctx)
	if err != nil {
		if v.metrics != nil {
			v.metrics.ObservePoll("error")
		}
		return Outcome{}, fmt.Errorf("failed to fetch payload: %w", err)
	}
	out, err := v.Update(raw)
	if v.metrics != nil {
		switch {
		case errors.Is(err, domain.ErrDecode):
			v.metrics.ObservePoll("error")
		case out.Rendered:
			v.metrics.ObservePoll("changed")
		default:
			v.metrics.ObservePoll("unchanged")
		}
	}
	return out, err
}

// Toggle flips the expansion of a section or group by identity.
func (v *Viewer) Toggle(id string) (bool, error) {
	expanded, err := v.reconciler.Toggle(id)
	if err == nil && v.metrics != nil {
		v.metrics.Toggles.Inc()
	}
	return expanded, err
}

// SetExpanded sets the expansion of a section or group by identity.
func (v *Viewer) SetExpanded(id string, expanded bool) error {
	err := v.reconciler.SetExpanded(id, expanded)
	if err == nil && v.metrics != nil {
		v.metrics.Toggles.Inc()
	}
	return err
}

// SaveState captures expansion and highlight state.
func (v *Viewer) SaveState() *domain.ViewState {
	return v.reconciler.SaveState()
}

// RestoreState merges a saved state and re-renders the last decoded snapshot
// so the restored expansion is visible without waiting for the next payload.
// While the placeholder is shown there is nothing to re-render, and the merged
// highlights stay in the store for the next tree.
func (v *Viewer) RestoreState(state *domain.ViewState) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.reconciler.RestoreState(state)
	prev := v.decoder.Previous()
	if prev == nil {
		return
	}
	stats := v.reconciler.Render(prev)
	if v.metrics != nil {
		v.metrics.ObserveRender(stats.Nodes, stats.Displayed)
	}
}

// Save persists the current state as viewID through mgr.
func (v *Viewer) Save(ctx context.Context, mgr *viewstate.Manager, viewID string) error {
	if err := mgr.Save(ctx, viewID, v.SaveState()); err != nil {
		return fmt.Errorf("failed to save view %q: %w", viewID, err)
	}
	v.logger.Info("View saved", "view_id", viewID)
	return nil
}

// Load restores viewID through mgr. A view that was never saved is not an error.
func (v *Viewer) Load(ctx context.Context, mgr *viewstate.Manager, viewID string) error {
	state, err := mgr.LoadOrEmpty(ctx, viewID)
	if err != nil {
		return err
	}
	v.RestoreState(state)
	v.logger.Info("View restored", "view_id", viewID,
		"expansion", len(state.Expansion),
		"active", len(state.Active),
	)
	return nil
}

// PendingHolds reports how many deactivation timers are armed.
func (v *Viewer) PendingHolds() int {
	return v.activity.Pending()
}

// Close stops the timers armed by a Viewer that owns its clock.
func (v *Viewer) Close() error {
	if v.ownClock != nil {
		v.ownClock.Stop()
	}
	return nil
}

func countMalformed(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += countMalformed(e)
		}
		return n
	}
	if errors.Is(err, domain.ErrMalformedNode) {
		return 1
	}
	return 0
}
