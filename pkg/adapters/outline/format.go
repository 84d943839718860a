package outline

import (
	"strings"

	"github.com/muesli/termenv"
)

// PlaceholderText is shown while no command tree is available.
const PlaceholderText = "Waiting for command data..."

const (
	iconExpanded  = "▾"
	iconCollapsed = "▸"
	iconLeaf      = "•"
	activeColor   = "#22c55e"
)

// Text renders the visible part of the tree for a terminal.
// Children of collapsed elements are hidden. Active nodes are coloured for
// profile; with termenv.Ascii they are marked with a trailing asterisk instead.
func (s *Sink) Text(profile termenv.Profile) string {
	roots, placeholder := s.Elements(), s.Placeholder()
	if placeholder {
		return PlaceholderText + "\n"
	}

	var sb strings.Builder
	for _, e := range roots {
		writeText(&sb, e, 0, profile)
	}
	return sb.String()
}

func writeText(sb *strings.Builder, e *Element, depth int, profile termenv.Profile) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(icon(e))
	sb.WriteString(" ")

	label := e.Title
	if e.Active {
		if profile == termenv.Ascii {
			label += " *"
		} else {
			label = termenv.String(label).Foreground(profile.Color(activeColor)).Bold().String()
		}
	}
	sb.WriteString(label)
	sb.WriteString("\n")

	if e.collapsible() && !e.Expanded {
		return
	}
	for _, child := range e.Children {
		writeText(sb, child, depth+1, profile)
	}
}

func icon(e *Element) string {
	switch {
	case !e.collapsible():
		return iconLeaf
	case e.Expanded:
		return iconExpanded
	default:
		return iconCollapsed
	}
}

// Markdown renders the visible part of the tree as Markdown: one heading per
// section and a nested list of commands, running ones in bold.
func (s *Sink) Markdown() string {
	roots, placeholder := s.Elements(), s.Placeholder()
	if placeholder {
		return "_" + PlaceholderText + "_\n"
	}

	var sb strings.Builder
	for i, section := range roots {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("### ")
		sb.WriteString(section.Title)
		if !section.Expanded {
			sb.WriteString(" (collapsed)")
		}
		sb.WriteString("\n\n")
		if !section.Expanded {
			continue
		}
		for _, child := range section.Children {
			writeMarkdown(&sb, child, 0)
		}
	}
	return sb.String()
}

func writeMarkdown(sb *strings.Builder, e *Element, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString("- ")
	if e.Active {
		sb.WriteString("**" + e.Title + "** _(running)_")
	} else {
		sb.WriteString(e.Title)
	}
	if e.Group && !e.Expanded && len(e.Children) > 0 {
		sb.WriteString(" …")
	}
	sb.WriteString("\n")

	if e.Group && !e.Expanded {
		return
	}
	for _, child := range e.Children {
		writeMarkdown(sb, child, depth+1)
	}
}
