package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

var classColors = map[string]*color.Color{
	"status-optimal":    color.New(color.FgGreen, color.Bold),
	"status-good":       color.New(color.FgGreen),
	"status-low":        color.New(color.FgYellow),
	"status-high":       color.New(color.FgMagenta),
	"status-cold":       color.New(color.FgCyan),
	"status-hot":        color.New(color.FgRed),
	"status-danger":     color.New(color.FgRed, color.Bold),
	"status-unknown":    color.New(color.Faint),
	"moisture-critical": color.New(color.BgRed),
	"moisture-low":      color.New(color.BgYellow),
	"moisture-medium":   color.New(color.BgCyan),
	"moisture-high":     color.New(color.BgGreen),
	"unavailable":       color.New(color.FgRed),
}

var regionColor = color.New(color.FgHiWhite, color.Bold)

func colorFor(class string) *color.Color {
	for _, c := range strings.Fields(class) {
		if col, ok := classColors[c]; ok {
			return col
		}
	}
	return nil
}

// Fprint writes the document as an indented text tree. Hidden nodes and
// their children are skipped.
func Fprint(w io.Writer, d *Document) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.regionsLocked() {
		if _, err := regionColor.Fprintf(w, "[%s]\n", r); err != nil {
			return err
		}
		if err := fprintNode(w, d.regions[r], 1); err != nil {
			return err
		}
	}
	return nil
}

func fprintNode(w io.Writer, n *Node, depth int) error {
	if n == nil || n.Hidden {
		return nil
	}
	if n.Text != "" {
		line := n.Text
		if c := colorFor(n.Class); c != nil {
			line = c.Sprint(line)
		}
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), line); err != nil {
			return err
		}
	}
	for _, c := range n.Children {
		if err := fprintNode(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
