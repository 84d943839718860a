package outline_test

import (
	"testing"

	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTree(s *outline.Sink) {
	s.Reset()
	s.SetPlaceholder(false)

	drive := s.CreateSection("Drive", "subsystem-0")
	group := s.CreateCommandNode(drive, true, "DriveCmd")
	s.SetExpanded(group, true)
	s.SetActiveIndicator(group, true)
	s.CreateCommandNode(group, false, "Stop")
	turn := s.CreateCommandNode(group, false, "Turn")
	s.SetActiveIndicator(turn, true)

	arm := s.CreateSection("Arm", "subsystem-1")
	s.SetExpanded(arm, false)
	s.CreateCommandNode(arm, false, "Hold")
}

func TestSink_Text(t *testing.T) {
	s := outline.New()
	assert.Equal(t, outline.PlaceholderText+"\n", s.Text(termenv.Ascii))

	buildTree(s)
	want := "" +
		"▾ Drive\n" +
		"  ▾ DriveCmd *\n" +
		"    • Stop\n" +
		"    • Turn *\n" +
		"▸ Arm\n"
	assert.Equal(t, want, s.Text(termenv.Ascii))
}

func TestSink_Markdown(t *testing.T) {
	s := outline.New()
	buildTree(s)

	md := s.Markdown()
	assert.Contains(t, md, "### Drive\n")
	assert.Contains(t, md, "- **DriveCmd** _(running)_\n")
	assert.Contains(t, md, "  - Stop\n")
	assert.Contains(t, md, "### Arm (collapsed)\n")
	assert.NotContains(t, md, "Hold")
}

func TestSink_ElementsAreCopies(t *testing.T) {
	s := outline.New()
	buildTree(s)

	roots := s.Elements()
	require.Len(t, roots, 2)
	roots[0].Children[0].Title = "mutated"

	assert.NotNil(t, s.Find("Drive", "DriveCmd", "Turn"))
}

func TestSink_Activate(t *testing.T) {
	s := outline.New()
	buildTree(s)

	var got []bool
	s.OnToggle(s.ElementHandle("Arm"), func(expanded bool) { got = append(got, expanded) })

	require.NoError(t, s.Activate("Arm"))
	assert.Equal(t, []bool{true}, got)

	assert.ErrorIs(t, s.Activate("Drive", "DriveCmd", "Stop"), outline.ErrNoSuchElement, "leaves do not toggle")
	assert.ErrorIs(t, s.Activate("Nope"), outline.ErrNoSuchElement)
}

func TestSink_ResetClearsTogglesAndBumpsVersion(t *testing.T) {
	s := outline.New()
	buildTree(s)
	called := false
	s.OnToggle(s.ElementHandle("Arm"), func(bool) { called = true })
	before := s.Version()

	s.Reset()
	assert.Greater(t, s.Version(), before)
	assert.Empty(t, s.Elements())
	assert.ErrorIs(t, s.Activate("Arm"), outline.ErrNoSuchElement)
	assert.False(t, called)
}

func TestSink_PlaceholderChangeBumpsVersion(t *testing.T) {
	s := outline.New()
	s.SetPlaceholder(false)
	hidden := s.Version()
	assert.False(t, s.Placeholder())

	s.SetPlaceholder(false)
	assert.Equal(t, hidden, s.Version(), "no change, no redraw")

	s.SetPlaceholder(true)
	assert.Greater(t, s.Version(), hidden)
	assert.True(t, s.Placeholder())
}
