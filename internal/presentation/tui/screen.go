package tui

import (
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/cmdtree/pkg/adapters/outline"
	"github.com/muesli/termenv"
)

// Format selects how the tree is drawn.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Screen redraws an outline sink on a terminal, skipping draws when the sink
// has not changed since the previous one.
type Screen struct {
	mu       sync.Mutex
	out      *termenv.Output
	w        io.Writer
	sink     *outline.Sink
	format   Format
	markdown func(string) (string, error)
	clear    bool
	drawn    uint64
	hasDrawn bool
}

// ScreenOption configures a Screen.
type ScreenOption func(*Screen)

// WithFormat picks text (default) or glamour-rendered markdown.
func WithFormat(f Format) ScreenOption {
	return func(s *Screen) {
		s.format = f
	}
}

// WithMarkdownRenderer replaces the glamour renderer used by FormatMarkdown.
func WithMarkdownRenderer(fn func(string) (string, error)) ScreenOption {
	return func(s *Screen) {
		s.markdown = fn
	}
}

// WithClear clears the screen before every draw.
func WithClear(clear bool) ScreenOption {
	return func(s *Screen) {
		s.clear = clear
	}
}

// NewScreen draws sink on w.
func NewScreen(w io.Writer, sink *outline.Sink, opts ...ScreenOption) *Screen {
	s := &Screen{
		out:    termenv.NewOutput(w),
		w:      w,
		sink:   sink,
		format: FormatText,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Draw writes the tree if it changed since the last draw. It reports whether
// anything was written.
func (s *Screen) Draw() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := s.sink.Version()
	if s.hasDrawn && version == s.drawn {
		return false, nil
	}

	body, err := s.render()
	if err != nil {
		return false, err
	}
	if s.clear {
		s.out.ClearScreen()
	}
	if _, err := fmt.Fprint(s.w, body); err != nil {
		return false, err
	}
	s.drawn = version
	s.hasDrawn = true
	return true, nil
}

func (s *Screen) render() (string, error) {
	switch s.format {
	case FormatMarkdown:
		if s.markdown == nil {
			r, err := NewRenderer(DefaultWidth)
			if err != nil {
				return "", fmt.Errorf("failed to create markdown renderer: %w", err)
			}
			s.markdown = r
		}
		return s.markdown(s.sink.Markdown())
	case FormatText, "":
		return s.sink.Text(s.out.EnvColorProfile()), nil
	default:
		return "", fmt.Errorf("unknown format %q", s.format)
	}
}
