// Package graph exports the rendered command tree as a Mermaid flowchart.
package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/cmdtree/pkg/adapters/outline"
)

// GenerateMermaid produces Mermaid flowchart syntax for the rendered tree.
// Shapes follow the element kind:
// - Section: [[Subroutine]]
// - Group: [Rectangle]
// - Leaf: (Rounded)
// Running nodes get the "active" class; collapsed groups and sections the
// "collapsed" class. Hidden children are still drawn.
func GenerateMermaid(roots []*outline.Element) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	var active, collapsed []string
	var walk func(e *outline.Element, id string)
	walk = func(e *outline.Element, id string) {
		opener, closer := "(", ")"
		switch {
		case e.Section:
			opener, closer = "[[", "]]"
		case e.Group:
			opener, closer = "[", "]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escapeLabel(e.Title), closer)

		if e.Active {
			active = append(active, id)
		}
		if (e.Section || e.Group) && !e.Expanded {
			collapsed = append(collapsed, id)
		}
		for i, child := range e.Children {
			childID := id + "_" + strconv.Itoa(i)
			walk(child, childID)
			fmt.Fprintf(&sb, "    %s --> %s\n", id, childID)
		}
	}
	for i, root := range roots {
		walk(root, "s"+strconv.Itoa(i))
	}

	if len(active) > 0 || len(collapsed) > 0 {
		sb.WriteString("\n    %% State Styles\n")
		sb.WriteString("    classDef active fill:#bbf7d0,stroke:#16a34a,stroke-width:3px,color:#000;\n")
		sb.WriteString("    classDef collapsed stroke-dasharray:4 3;\n")
		for _, id := range active {
			fmt.Fprintf(&sb, "    class %s active;\n", id)
		}
		for _, id := range collapsed {
			fmt.Fprintf(&sb, "    class %s collapsed;\n", id)
		}
	}
	return sb.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
