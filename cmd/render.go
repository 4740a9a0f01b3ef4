package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/illarion/passman/internal/core"
)

const (
	cyan   = lipgloss.Color("#22D3EE")
	amber  = lipgloss.Color("#F59E0B")
	red    = lipgloss.Color("#EF4444")
	green  = lipgloss.Color("#10B981")
	subtle = lipgloss.Color("#9CA3AF")
)

type styles struct {
	title   lipgloss.Style
	name    lipgloss.Style
	label   lipgloss.Style
	hidden  lipgloss.Style
	command lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	ok      lipgloss.Style
}

// newStyles binds styles to out so colors are dropped when out is not a
// terminal.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		title:   r.NewStyle().Foreground(cyan).Bold(true),
		name:    r.NewStyle().Bold(true),
		label:   r.NewStyle().Italic(true).Foreground(subtle),
		hidden:  r.NewStyle().Foreground(subtle),
		command: r.NewStyle().Foreground(green),
		warn:    r.NewStyle().Foreground(amber),
		err:     r.NewStyle().Foreground(red),
		ok:      r.NewStyle().Foreground(green),
	}
}

func (s *Shell) renderEntry(v core.EntryView) {
	password := v.PasswordText()
	if !v.Exposed() {
		password = s.styles.hidden.Render(password)
	}
	fmt.Fprintln(s.out, s.styles.name.Render(v.Name))
	fmt.Fprintf(s.out, "  %s %s\n", s.styles.label.Render("username:"), v.Username)
	fmt.Fprintf(s.out, "  %s %s\n", s.styles.label.Render("password:"), password)
}
