package outline

import "github.com/aretw0/cmdtree/pkg/ports"

// ElementHandle returns the live handle of the element reached by following titles.
func (s *Sink) ElementHandle(titles ...string) ports.NodeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := find(s.roots, titles); e != nil {
		return e
	}
	return nil
}
