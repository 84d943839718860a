// Package outline implements ports.RenderSink as an in-memory element tree that
// can be printed to a terminal, rendered as Markdown or served as JSON.
package outline

import (
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/cmdtree/pkg/ports"
)

// ErrNoSuchElement is returned by Activate when the title path matches nothing.
var ErrNoSuchElement = errors.New("no such element")

// Element is a materialized section or command node.
type Element struct {
	Title    string     `json:"title"`
	Section  bool       `json:"section,omitempty"`
	Group    bool       `json:"group,omitempty"`
	Expanded bool       `json:"expanded"`
	Active   bool       `json:"active"`
	Children []*Element `json:"children,omitempty"`
}

func (e *Element) collapsible() bool { return e.Section || e.Group }

func (e *Element) clone() *Element {
	c := *e
	c.Children = make([]*Element, len(e.Children))
	for i, child := range e.Children {
		c.Children[i] = child.clone()
	}
	if len(c.Children) == 0 {
		c.Children = nil
	}
	return &c
}

// Sink collects the render calls of a reconciler.
// Safe for concurrent use.
type Sink struct {
	mu          sync.Mutex
	roots       []*Element
	placeholder bool
	toggles     map[*Element]func(expanded bool)
	version     uint64
}

var _ ports.RenderSink = (*Sink)(nil)

// New creates an empty sink showing the placeholder.
func New() *Sink {
	return &Sink{
		placeholder: true,
		toggles:     make(map[*Element]func(bool)),
	}
}

// Reset implements ports.RenderSink.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots = nil
	s.toggles = make(map[*Element]func(bool))
	s.version++
}

// SetPlaceholder implements ports.RenderSink.
func (s *Sink) SetPlaceholder(visible bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.placeholder != visible {
		s.placeholder = visible
		s.version++
	}
}

// CreateSection implements ports.RenderSink.
func (s *Sink) CreateSection(title, id string) ports.NodeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Element{Title: title, Section: true, Expanded: true}
	s.roots = append(s.roots, e)
	return e
}

// CreateCommandNode implements ports.RenderSink.
func (s *Sink) CreateCommandNode(parent ports.NodeHandle, hasChildren bool, name string) ports.NodeHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &Element{Title: name, Group: hasChildren}
	if p, ok := parent.(*Element); ok {
		p.Children = append(p.Children, e)
	}
	return e
}

// SetExpanded implements ports.RenderSink.
func (s *Sink) SetExpanded(node ports.NodeHandle, expanded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := node.(*Element); ok {
		e.Expanded = expanded
		s.version++
	}
}

// SetActiveIndicator implements ports.RenderSink.
func (s *Sink) SetActiveIndicator(node ports.NodeHandle, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := node.(*Element); ok {
		e.Active = active
		s.version++
	}
}

// OnToggle implements ports.RenderSink.
func (s *Sink) OnToggle(node ports.NodeHandle, fn func(expanded bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := node.(*Element); ok {
		s.toggles[e] = fn
	}
}

// Activate simulates the user clicking the expand/collapse affordance of the
// element reached by following titles from the roots.
func (s *Sink) Activate(titles ...string) error {
	s.mu.Lock()
	e := find(s.roots, titles)
	var fn func(bool)
	var next bool
	if e != nil {
		fn = s.toggles[e]
		next = !e.Expanded
	}
	s.mu.Unlock()

	if e == nil || !e.collapsible() {
		return fmt.Errorf("%w: %v", ErrNoSuchElement, titles)
	}
	if fn != nil {
		fn(next)
	}
	return nil
}

// Elements returns a deep copy of the current tree.
func (s *Sink) Elements() []*Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Element, len(s.roots))
	for i, e := range s.roots {
		out[i] = e.clone()
	}
	return out
}

// Find returns a copy of the element reached by following titles, or nil.
func (s *Sink) Find(titles ...string) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := find(s.roots, titles); e != nil {
		return e.clone()
	}
	return nil
}

// Placeholder reports whether the "waiting for data" message is shown.
func (s *Sink) Placeholder() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placeholder
}

// Version increases on every visible change. Printers use it to skip redraws.
func (s *Sink) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

func find(level []*Element, titles []string) *Element {
	if len(titles) == 0 {
		return nil
	}
	for _, e := range level {
		if e.Title != titles[0] {
			continue
		}
		if len(titles) == 1 {
			return e
		}
		return find(e.Children, titles[1:])
	}
	return nil
}
