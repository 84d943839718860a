package decoder_test

import (
	"errors"
	"testing"

	"github.com/aretw0/cmdtree/pkg/decoder"
	"github.com/aretw0/cmdtree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const drivePayload = `{
	"subsystems": [{"name": "Drive", "command": {"name": "Drive", "commands": [
		{"name": "Stop", "active": false},
		{"name": "Turn", "active": true}
	]}}],
	"scheduled": []
}`

func ptr(s string) *string { return &s }

func TestParse_Scenario(t *testing.T) {
	snap, err := decoder.Parse(drivePayload)
	require.NoError(t, err)

	want := &domain.Snapshot{
		Subsystems: []domain.Subsystem{{
			Name: "Drive",
			Root: &domain.Command{
				Kind: domain.KindGroup,
				Name: "Drive",
				Children: []domain.Command{
					domain.Leaf("Stop", false),
					domain.Leaf("Turn", true),
				},
			},
		}},
		Scheduled: []domain.Command{},
	}
	assert.Equal(t, want, snap)
}

func TestParse_SubsystemWithoutCommand(t *testing.T) {
	snap, err := decoder.Parse(`{"subsystems":[{"name":"Arm"}, {"name":"Intake","command":null}]}`)
	require.NoError(t, err)
	require.Len(t, snap.Subsystems, 2)
	assert.Nil(t, snap.Subsystems[0].Root)
	assert.Nil(t, snap.Subsystems[1].Root)
	assert.Empty(t, snap.Scheduled)
}

func TestParse_MalformedNodesAreSkipped(t *testing.T) {
	snap, err := decoder.Parse(`{
		"subsystems": [{"name": "Drive", "command": {"name": "Drive", "commands": [
			{"name": "Both", "active": true, "commands": []},
			{"name": "Ok", "active": true},
			{"active": true},
			{"name": "Neither"},
			{"name": 7, "active": true},
			"string"
		]}}],
		"scheduled": [{"name": "Auto", "active": "yes"}, {"name": "Shoot", "active": true}]
	}`)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedNode)
	assert.NotErrorIs(t, err, domain.ErrDecode)

	root := snap.Subsystems[0].Root
	require.NotNil(t, root)
	assert.Equal(t, []domain.Command{domain.Leaf("Ok", true)}, root.Children)
	assert.Equal(t, []domain.Command{domain.Leaf("Shoot", true)}, snap.Scheduled)

	var joined interface{ Unwrap() []error }
	require.ErrorAs(t, err, &joined)
	assert.Len(t, joined.Unwrap(), 6)

	var first *domain.MalformedNodeError
	require.ErrorAs(t, err, &first)
	assert.Equal(t, "subsystem-0/Drive/0/Both", first.Path)
}

func TestParse_NullFieldsAreMalformed(t *testing.T) {
	snap, err := decoder.Parse(`{
		"subsystems": [{"name": "Arm", "command": {"name": "Arm", "commands": [
			{"name": "G", "commands": null},
			{"name": "L", "active": null},
			{"name": "S", "commands": "Stop"},
			{"name": "Ok", "commands": []}
		]}}],
		"scheduled": []
	}`)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedNode)
	var joined interface{ Unwrap() []error }
	require.ErrorAs(t, err, &joined)
	assert.Len(t, joined.Unwrap(), 3)

	var first *domain.MalformedNodeError
	require.ErrorAs(t, err, &first)
	assert.Equal(t, "subsystem-0/Arm/0/G", first.Path)

	root := snap.Subsystems[0].Root
	require.NotNil(t, root)
	assert.Equal(t, []domain.Command{domain.Group("Ok")}, root.Children)
}

func TestParse_DecodeErrors(t *testing.T) {
	for name, raw := range map[string]string{
		"invalid json":         `{"subsystems":`,
		"array payload":        `[]`,
		"subsystems not array": `{"subsystems": {"name": "Drive"}}`,
		"scheduled wrong type": `{"scheduled": 3}`,
	} {
		t.Run(name, func(t *testing.T) {
			snap, err := decoder.Parse(raw)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, domain.ErrDecode)
		})
	}
}

func TestDecoder_NilKeepsPrevious(t *testing.T) {
	d := decoder.New()
	first, err := d.Decode(ptr(drivePayload))
	require.NoError(t, err)
	require.True(t, first.Changed)

	res, err := d.Decode(nil)
	assert.ErrorIs(t, err, domain.ErrDecode)
	assert.False(t, res.Changed)
	assert.Same(t, first.Snapshot, res.Snapshot)
}

func TestDecoder_GarbageKeepsPrevious(t *testing.T) {
	d := decoder.New()
	first, _ := d.Decode(ptr(drivePayload))

	res, err := d.Decode(ptr("not json"))
	var decErr *domain.DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Error(t, decErr.Unwrap())
	assert.False(t, res.Changed)
	assert.Same(t, first.Snapshot, res.Snapshot)

	// The rejected payload is not memoized: the good one still short-circuits.
	res, err = d.Decode(ptr(drivePayload))
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestDecoder_Memoizes(t *testing.T) {
	d := decoder.New()
	first, err := d.Decode(ptr(drivePayload))
	require.NoError(t, err)

	again, err := d.Decode(ptr(drivePayload))
	require.NoError(t, err)
	assert.False(t, again.Changed)
	assert.Same(t, first.Snapshot, again.Snapshot, "the tree must not be rebuilt")
	assert.Same(t, first.Snapshot, d.Previous())
}

func TestDecoder_EmptyPayloadClears(t *testing.T) {
	d := decoder.New()
	_, _ = d.Decode(ptr(drivePayload))

	res, err := d.Decode(ptr(""))
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Nil(t, res.Snapshot)
	assert.Nil(t, d.Previous())

	res, err = d.Decode(ptr(""))
	require.NoError(t, err)
	assert.False(t, res.Changed)
}
