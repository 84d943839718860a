package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/cmdtree/internal/presentation/graph"
	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/stretchr/testify/assert"
)

func TestGenerateMermaid(t *testing.T) {
	roots := []*outline.Element{{
		Title:    "Drive",
		Section:  true,
		Expanded: true,
		Children: []*outline.Element{{
			Title:  "Drive \"Main\"",
			Group:  true,
			Active: true,
			Children: []*outline.Element{
				{Title: "Stop"},
				{Title: "Turn", Active: true},
			},
		}},
	}}

	got := graph.GenerateMermaid(roots)

	tests := []struct {
		name     string
		contains string
	}{
		{"Section Shape", `s0[["Drive"]]`},
		{"Group Shape And Escaping", `s0_0["Drive 'Main'"]`},
		{"Leaf Shape", `s0_0_1("Turn")`},
		{"Edge", "s0_0 --> s0_0_0"},
		{"Active Style", "class s0_0_1 active;"},
		{"Collapsed Style", "class s0_0 collapsed;"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, got, tt.contains)
		})
	}
	assert.True(t, strings.HasPrefix(got, "graph TD\n"))
	assert.NotContains(t, got, "class s0 collapsed;")
}

func TestGenerateMermaid_Empty(t *testing.T) {
	assert.Equal(t, "graph TD\n", graph.GenerateMermaid(nil))
}
