package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the cmdtree banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"                     _ _                 ", "#34d399"},
		{"   ___ _ __ ___   __| | |_ _ __ ___  ___ ", "#22c55e"},
		{"  / __| '_ ` _ \\ / _` | __| '__/ _ \\/ _ \\", "#16a34a"},
		{" | (__| | | | | | (_| | |_| | |  __/  __/", "#15803d"},
		{"  \\___|_| |_| |_|\\__,_|\\__|_|  \\___|\\___|", "#166534"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
