// Package reconciler rebuilds the visual command tree from each decoded snapshot.
//
// Every Render is a full rebuild: previously materialized nodes are discarded and
// only the expansion and activity stores carry over from one snapshot to the next.
// Activity aggregates upward using the instantaneous value of each node; the
// debounced value only decides what the node itself displays.
package reconciler

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/aretw0/cmdtree/internal/logging"
	"github.com/aretw0/cmdtree/pkg/activity"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/expansion"
	"github.com/aretw0/cmdtree/pkg/ports"
)

// ErrNotToggleable is returned when a toggle targets an identity that is not a
// section or group of the current render.
var ErrNotToggleable = errors.New("node cannot be expanded or collapsed")

// Stats summarizes one render pass.
type Stats struct {
	Sections int
	Nodes    int
	// Displayed counts nodes whose highlight is on after the pass.
	Displayed int
}

type rendered struct {
	handle     ports.NodeHandle
	toggleable bool
}

// Reconciler drives a RenderSink from snapshots.
// Render, toggles and timer-driven deactivations are serialized by one mutex,
// so the sink only ever sees one caller at a time.
type Reconciler struct {
	mu        sync.Mutex
	sink      ports.RenderSink
	expansion *expansion.Store
	activity  *activity.Store
	nodes     map[string]rendered
	logger    *slog.Logger
}

// Option configures the Reconciler.
type Option func(*Reconciler)

// WithLogger configures a logger for the Reconciler.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Reconciler) {
		r.logger = logger
	}
}

// New creates a Reconciler that owns sink for its whole life.
// The sink must not invoke toggle callbacks from inside its own methods.
func New(sink ports.RenderSink, exp *expansion.Store, act *activity.Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		sink:      sink,
		expansion: exp,
		activity:  act,
		nodes:     make(map[string]rendered),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	act.OnDeactivate(r.deactivated)
	return r
}

// Render rebuilds the tree for snap. A nil snapshot clears the view and shows
// the placeholder. Render must not be called concurrently with itself.
func (r *Reconciler) Render(snap *domain.Snapshot) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sink.Reset()
	r.nodes = make(map[string]rendered)
	seen := make(map[string]struct{})
	var stats Stats

	if snap == nil {
		r.sink.SetPlaceholder(true)
		r.activity.Retain(seen)
		r.logger.Debug("Rendered placeholder")
		return stats
	}
	r.sink.SetPlaceholder(false)

	for i, sub := range snap.Subsystems {
		sectionID := domain.SubsystemSectionID(i)
		section := r.section(sub.Name, sectionID, &stats)
		if sub.Root != nil {
			r.walk(*sub.Root, section, domain.NodePath{sectionID}, seen, &stats)
		}
	}

	if len(snap.Scheduled) > 0 {
		section := r.section(domain.ScheduledSectionTitle, domain.ScheduledSectionID, &stats)
		for i, cmd := range snap.Scheduled {
			r.walk(cmd, section, domain.NodePath{domain.ScheduledSectionID, strconv.Itoa(i)}, seen, &stats)
		}
	}

	r.activity.Retain(seen)
	r.logger.Debug("Rendered snapshot",
		"sections", stats.Sections,
		"nodes", stats.Nodes,
		"displayed", stats.Displayed,
	)
	return stats
}

func (r *Reconciler) section(title, id string, stats *Stats) ports.NodeHandle {
	h := r.sink.CreateSection(title, id)
	r.sink.SetExpanded(h, r.expansion.Get(id))
	r.bindToggle(h, id)
	r.nodes[id] = rendered{handle: h, toggleable: true}
	stats.Sections++
	return h
}

// walk materializes cmd under parent and returns its instantaneous activity.
func (r *Reconciler) walk(cmd domain.Command, parent ports.NodeHandle, container domain.NodePath, seen map[string]struct{}, stats *Stats) bool {
	id := container.NodeID(cmd.Name)
	h := r.sink.CreateCommandNode(parent, cmd.HasChildren(), cmd.Name)

	var instantaneous bool
	switch cmd.Kind {
	case domain.KindGroup:
		r.sink.SetExpanded(h, r.expansion.Get(id))
		r.bindToggle(h, id)

		results := make([]bool, len(cmd.Children))
		for i, child := range cmd.Children {
			results[i] = r.walk(child, h, container.Child(cmd.Name, i), seen, stats)
		}
		instantaneous = domain.GroupActive(results)
	case domain.KindLeaf:
		instantaneous = cmd.Active
	}

	r.nodes[id] = rendered{handle: h, toggleable: cmd.HasChildren()}
	seen[id] = struct{}{}
	stats.Nodes++

	displayed := r.activity.Update(id, instantaneous)
	r.sink.SetActiveIndicator(h, displayed)
	if displayed {
		stats.Displayed++
	}
	return instantaneous
}

func (r *Reconciler) bindToggle(h ports.NodeHandle, id string) {
	r.sink.OnToggle(h, func(expanded bool) {
		if err := r.SetExpanded(id, expanded); err != nil {
			r.logger.Debug("Toggle on stale node ignored", "node_id", id, "err", err)
		}
	})
}

// SetExpanded records the expansion of a section or group of the current render
// and reflects it in the sink.
func (r *Reconciler) SetExpanded(id string, expanded bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[id]
	if !ok || !n.toggleable {
		return fmt.Errorf("%w: %q", ErrNotToggleable, id)
	}
	r.expansion.Set(id, expanded)
	r.sink.SetExpanded(n.handle, expanded)
	return nil
}

// Toggle flips the expansion of a section or group and returns the new value.
func (r *Reconciler) Toggle(id string) (bool, error) {
	r.mu.Lock()
	n, ok := r.nodes[id]
	r.mu.Unlock()
	if !ok || !n.toggleable {
		return false, fmt.Errorf("%w: %q", ErrNotToggleable, id)
	}
	expanded := !r.expansion.Get(id)
	return expanded, r.SetExpanded(id, expanded)
}

// deactivated runs when a hold timer expires. The store is consulted again so a
// firing that raced with a newer activation leaves the highlight on.
func (r *Reconciler) deactivated(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.nodes[id]
	if !ok || r.activity.Display(id) {
		return
	}
	r.sink.SetActiveIndicator(n.handle, false)
	r.logger.Debug("Highlight cleared", "node_id", id)
}

// SaveState captures both stores. Pending timers are not captured.
func (r *Reconciler) SaveState() *domain.ViewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.ViewState{
		Expansion: r.expansion.Serialize(),
		Active:    r.activity.Serialize(),
	}
}

// RestoreState merges a saved state into the live stores.
// It takes effect on the next Render.
func (r *Reconciler) RestoreState(state *domain.ViewState) {
	if state == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expansion.RestoreFrom(state.Expansion)
	r.activity.RestoreFrom(state.Active)
}
