package main

import (
	"fmt"
	"io"

	"griddiff/text"

	"github.com/charmbracelet/lipgloss"
)

var (
	oldStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	newStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	statsStyle = lipgloss.NewStyle().Faint(true)
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// renderer writes diff units in unified-diff style: "  " for same, "- " for
// old and "+ " for new.
type renderer struct {
	w     io.Writer
	color bool
}

func newRenderer(w io.Writer, color bool) *renderer {
	return &renderer{w: w, color: color}
}

func (r *renderer) style(s lipgloss.Style, str string) string {
	if !r.color {
		return str
	}
	return s.Render(str)
}

func (r *renderer) unit(u text.DiffUnit) {
	switch u.Type {
	case text.DiffOld:
		fmt.Fprintln(r.w, r.style(oldStyle, "- "+u.Line))
	case text.DiffNew:
		fmt.Fprintln(r.w, r.style(newStyle, "+ "+u.Line))
	default:
		fmt.Fprintln(r.w, "  "+u.Line)
	}
}

func (r *renderer) units(units []text.DiffUnit) {
	for _, u := range units {
		r.unit(u)
	}
}

// chars writes a character diff inline: removed clusters as [-x-], added as {+x+}
func (r *renderer) chars(units []text.DiffCharUnit) {
	for i := 0; i < len(units); {
		t := units[i].Type
		j := i
		var run string
		for ; j < len(units) && units[j].Type == t; j++ {
			run += units[j].Char
		}
		switch t {
		case text.DiffOld:
			fmt.Fprint(r.w, r.style(oldStyle, "[-"+run+"-]"))
		case text.DiffNew:
			fmt.Fprint(r.w, r.style(newStyle, "{+"+run+"+}"))
		default:
			fmt.Fprint(r.w, run)
		}
		i = j
	}
	fmt.Fprintln(r.w)
}

func (r *renderer) stats(s text.DiffStats) {
	line := fmt.Sprintf("%d added, %d removed, %d changed, %d chars",
		s.LinesAdded, s.LinesRemoved, s.LinesChanged, s.CharChanges)
	fmt.Fprintln(r.w, r.style(statsStyle, line))
}

func renderError(err error) string {
	return errorStyle.Render("error: ") + err.Error()
}
