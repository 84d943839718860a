package domain

// Phase is the debounce state of a node's activity highlight.
type Phase int

const (
	// PhaseInactive shows the node as inactive.
	PhaseInactive Phase = iota
	// PhaseActiveHeld shows the node as active and it was observed active last pass.
	PhaseActiveHeld
	// PhasePendingDeactivate still shows the node as active while a deactivation timer runs.
	PhasePendingDeactivate
)

func (p Phase) String() string {
	switch p {
	case PhaseInactive:
		return "inactive"
	case PhaseActiveHeld:
		return "active_held"
	case PhasePendingDeactivate:
		return "pending_deactivate"
	default:
		return "unknown"
	}
}

// Displayed reports whether a node in this phase is highlighted.
func (p Phase) Displayed() bool {
	return p != PhaseInactive
}
