package domain

// GroupActive aggregates the instantaneous activity of a group's children.
// A group has no activity of its own: it is active iff any child is.
func GroupActive(children []bool) bool {
	for _, active := range children {
		if active {
			return true
		}
	}
	return false
}
