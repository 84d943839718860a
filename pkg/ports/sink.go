package ports

// NodeHandle is an opaque reference to a materialized section or command node.
// Only the RenderSink that created it can interpret it.
type NodeHandle any

// RenderSink materializes the visual tree.
// The core issues calls from a single goroutine at a time.
type RenderSink interface {
	// Reset discards every previously materialized node.
	Reset()

	// SetPlaceholder shows or hides the "waiting for data" message.
	SetPlaceholder(visible bool)

	// CreateSection appends a top-level collapsible section.
	CreateSection(title, id string) NodeHandle

	// CreateCommandNode appends a command node under parent (a section or a group).
	CreateCommandNode(parent NodeHandle, hasChildren bool, name string) NodeHandle

	// SetExpanded shows or hides the children of a section or group.
	SetExpanded(node NodeHandle, expanded bool)

	// SetActiveIndicator sets or clears the "running" highlight of a node.
	SetActiveIndicator(node NodeHandle, active bool)

	// OnToggle registers the callback invoked when the user expands or collapses node.
	OnToggle(node NodeHandle, fn func(expanded bool))
}
