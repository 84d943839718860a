package reconciler_test

import (
	"testing"
	"time"

	"github.com/aretw0/cmdtree/pkg/activity"
	"github.com/aretw0/cmdtree/pkg/adapters/clock"
	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/aretw0/cmdtree/pkg/expansion"
	"github.com/aretw0/cmdtree/pkg/reconciler"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	clock *clock.Virtual
	sink  *outline.Sink
	exp   *expansion.Store
	act   *activity.Store
	rec   *reconciler.Reconciler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		clock: clock.NewVirtual(),
		sink:  outline.New(),
		exp:   expansion.NewStore(),
	}
	f.act = activity.NewStore(f.clock)
	f.rec = reconciler.New(f.sink, f.exp, f.act)
	return f
}

func drive(stop, turn bool) *domain.Snapshot {
	root := domain.Group("Drive", domain.Leaf("Stop", stop), domain.Leaf("Turn", turn))
	return &domain.Snapshot{
		Subsystems: []domain.Subsystem{{Name: "Drive", Root: &root}},
	}
}

func (f *fixture) turnActive(t *testing.T) bool {
	t.Helper()
	e := f.sink.Find("Drive", "Drive", "Turn")
	require.NotNil(t, e)
	return e.Active
}

func TestRender_DriveScenario(t *testing.T) {
	f := newFixture(t)

	stats := f.rec.Render(drive(false, true))

	want := []*outline.Element{{
		Title:    "Drive",
		Section:  true,
		Expanded: true,
		Children: []*outline.Element{{
			Title:  "Drive",
			Group:  true,
			Active: true,
			Children: []*outline.Element{
				{Title: "Stop"},
				{Title: "Turn", Active: true},
			},
		}},
	}}
	if diff := cmp.Diff(want, f.sink.Elements()); diff != "" {
		t.Errorf("rendered tree mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, f.sink.Placeholder())
	assert.Nil(t, f.sink.Find(domain.ScheduledSectionTitle), "no scheduled section for an empty list")
	assert.Equal(t, reconciler.Stats{Sections: 1, Nodes: 3, Displayed: 2}, stats)
}

func TestRender_ScheduledSection(t *testing.T) {
	f := newFixture(t)
	snap := drive(false, false)
	snap.Scheduled = []domain.Command{domain.Leaf("Auto", true), domain.Group("Score")}

	f.rec.Render(snap)

	roots := f.sink.Elements()
	require.Len(t, roots, 2)
	assert.Equal(t, domain.ScheduledSectionTitle, roots[1].Title)
	assert.True(t, roots[1].Expanded)
	assert.Equal(t, []string{"Auto", "Score"}, []string{roots[1].Children[0].Title, roots[1].Children[1].Title})
	assert.True(t, f.act.Display("scheduled/0/Auto"))
	assert.False(t, f.act.Display("scheduled/1/Score"))
}

func TestRender_SubsystemWithoutCommand(t *testing.T) {
	f := newFixture(t)
	f.rec.Render(&domain.Snapshot{Subsystems: []domain.Subsystem{{Name: "Arm"}}})

	e := f.sink.Find("Arm")
	require.NotNil(t, e)
	assert.Empty(t, e.Children)
}

func TestRender_Idempotent(t *testing.T) {
	f := newFixture(t)
	snap := drive(false, true)

	f.rec.Render(snap)
	first := f.sink.Elements()
	armed := f.clock.Armed()

	f.rec.Render(snap)
	assert.Equal(t, first, f.sink.Elements())
	assert.Equal(t, armed, f.clock.Armed(), "no new timers")
}

func TestRender_DebounceHoldsThroughFlicker(t *testing.T) {
	f := newFixture(t)

	for i, turn := range []bool{true, false, true, false, true} {
		f.rec.Render(drive(false, turn))
		assert.True(t, f.turnActive(t), "pass %d", i)
		assert.True(t, f.sink.Find("Drive", "Drive").Active, "pass %d", i)
		f.clock.Advance(40 * time.Millisecond)
		assert.True(t, f.turnActive(t), "after pass %d", i)
	}
	assert.Equal(t, 0, f.clock.Fired())
}

func TestRender_EventualDeactivationViaTimer(t *testing.T) {
	f := newFixture(t)
	f.rec.Render(drive(false, true))

	f.rec.Render(drive(false, false))
	f.clock.Advance(50 * time.Millisecond)
	f.rec.Render(drive(false, false))
	f.clock.Advance(49 * time.Millisecond)
	f.rec.Render(drive(false, false))
	assert.True(t, f.turnActive(t), "held until the timer fires")

	f.clock.Advance(time.Millisecond)
	assert.False(t, f.turnActive(t), "cleared by the timer, not by a render")
	assert.False(t, f.sink.Find("Drive", "Drive").Active)
	assert.Equal(t, 2, f.clock.Fired(), "one expiry for the leaf, one for its group")

	f.clock.Advance(time.Second)
	f.rec.Render(drive(false, false))
	assert.Equal(t, 2, f.clock.Fired(), "deactivation happens exactly once")
}

func TestRender_PropagatesInstantaneousActivity(t *testing.T) {
	f := newFixture(t)
	build := func(a bool) *domain.Snapshot {
		root := domain.Group("Root",
			domain.Group("Mid", domain.Leaf("A", a)),
			domain.Leaf("B", false),
		)
		return &domain.Snapshot{Subsystems: []domain.Subsystem{{Name: "Sub", Root: &root}}}
	}

	f.rec.Render(build(true))
	f.rec.Render(build(false))

	assert.Equal(t, domain.PhasePendingDeactivate, f.act.Phase("subsystem-0/Root/0/Mid/0/A"))
	assert.True(t, f.sink.Find("Sub", "Root", "Mid", "A").Active, "leaf still displays active")
	assert.Equal(t, domain.PhasePendingDeactivate, f.act.Phase("subsystem-0/Root/0/Mid"),
		"a pending child counts as inactive for its parent")
	assert.Equal(t, domain.PhasePendingDeactivate, f.act.Phase("subsystem-0/Root"))
}

func TestRender_VanishedNodeCancelsTimer(t *testing.T) {
	f := newFixture(t)
	f.rec.Render(drive(false, true))
	f.rec.Render(drive(false, false))
	require.Equal(t, 2, f.clock.Pending())

	f.rec.Render(&domain.Snapshot{})
	assert.Equal(t, 0, f.clock.Pending())
	assert.Empty(t, f.sink.Elements())

	f.rec.Render(drive(false, false))
	f.clock.Advance(time.Second)
	assert.False(t, f.turnActive(t))
	assert.Equal(t, 0, f.clock.Fired())
}

func TestRender_NilShowsPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.rec.Render(drive(false, true))

	f.rec.Render(nil)
	assert.True(t, f.sink.Placeholder())
	assert.Empty(t, f.sink.Elements())
	assert.False(t, f.act.Display("subsystem-0/Drive/1/Turn"))
}

func TestToggle_ViaSinkCallback(t *testing.T) {
	f := newFixture(t)
	f.rec.Render(drive(false, true))

	require.NoError(t, f.sink.Activate("Drive", "Drive"))
	assert.True(t, f.exp.Get("subsystem-0/Drive"))
	assert.True(t, f.sink.Find("Drive", "Drive").Expanded)

	f.rec.Render(drive(true, true))
	assert.True(t, f.sink.Find("Drive", "Drive").Expanded, "expansion survives a rebuild")

	require.NoError(t, f.sink.Activate("Drive"))
	assert.False(t, f.exp.Get("subsystem-0"))
	assert.False(t, f.sink.Find("Drive").Expanded)
}

func TestToggle_ByID(t *testing.T) {
	f := newFixture(t)
	f.rec.Render(drive(false, true))

	expanded, err := f.rec.Toggle("subsystem-0/Drive")
	require.NoError(t, err)
	assert.True(t, expanded)
	assert.True(t, f.sink.Find("Drive", "Drive").Expanded)

	_, err = f.rec.Toggle("subsystem-0/Drive/1/Turn")
	assert.ErrorIs(t, err, reconciler.ErrNotToggleable)

	_, err = f.rec.Toggle("subsystem-9")
	assert.ErrorIs(t, err, reconciler.ErrNotToggleable)
}

func TestSaveAndRestoreState(t *testing.T) {
	f := newFixture(t)
	f.rec.Render(drive(false, true))
	require.NoError(t, f.rec.SetExpanded("subsystem-0/Drive", true))

	saved := f.rec.SaveState()
	assert.Contains(t, saved.Expansion, domain.Entry{ID: "subsystem-0/Drive", Value: true})
	assert.Contains(t, saved.Active, domain.Entry{ID: "subsystem-0/Drive/1/Turn", Value: true})

	g := newFixture(t)
	g.rec.RestoreState(saved)
	g.rec.Render(drive(false, false))

	assert.True(t, g.sink.Find("Drive", "Drive").Expanded)
	assert.True(t, g.turnActive(t), "restored highlight starts held")
	g.clock.Advance(activity.DefaultHold)
	assert.False(t, g.turnActive(t))
}
