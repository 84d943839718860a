package domain

import (
	"strconv"
	"strings"
)

const (
	// ScheduledSectionID is the root context of the scheduled command list.
	ScheduledSectionID = "scheduled"
	// ScheduledSectionTitle is the title of the trailing scheduled section.
	ScheduledSectionTitle = "Scheduled Commands"

	subsystemPrefix = "subsystem-"
	separator       = "/"
)

// NodePath is the container path of a node: a root context followed by
// alternating group names and sibling indexes.
type NodePath []string

// SubsystemSectionID returns the root context of the i-th subsystem.
func SubsystemSectionID(i int) string {
	return subsystemPrefix + strconv.Itoa(i)
}

// IsSectionID reports whether id names a top-level section rather than a node.
// Node identities always contain a separator, section identities never do.
func IsSectionID(id string) bool {
	return id != "" && !strings.Contains(id, separator)
}

// Child returns the container path for the index-th child of the group name.
// The receiver is never modified.
func (p NodePath) Child(name string, index int) NodePath {
	next := make(NodePath, 0, len(p)+2)
	next = append(next, p...)
	return append(next, name, strconv.Itoa(index))
}

// NodeID returns the identity of the node called name inside this container.
func (p NodePath) NodeID(name string) string {
	return strings.Join(p, separator) + separator + name
}

// String joins the path with the separator.
func (p NodePath) String() string {
	return strings.Join(p, separator)
}
