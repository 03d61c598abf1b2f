// Package ui renders ddk's terminal output: status lines on stderr and the
// store tree, compiler table and journal lines on stdout.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// styles holds the lipgloss styles shared by the renderers.
type styles struct {
	title    lipgloss.Style
	dim      lipgloss.Style
	ok       lipgloss.Style
	warn     lipgloss.Style
	bad      lipgloss.Style
	accent   lipgloss.Style
	active   lipgloss.Style
	compiler lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		dim:      lipgloss.NewStyle().Faint(true),
		ok:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		warn:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		bad:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		accent:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		active:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
		compiler: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

// Printer writes status lines.
type Printer struct {
	w  io.Writer
	st styles
}

// New returns a Printer on stderr.
func New() *Printer {
	return NewTo(os.Stderr)
}

// NewTo returns a Printer on w.
func NewTo(w io.Writer) *Printer {
	return &Printer{w: w, st: newStyles()}
}

// Error prints a failure.
func (p *Printer) Error(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.st.bad.Render("error:"), msg)
}

// Warn prints a recoverable problem.
func (p *Printer) Warn(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.st.warn.Render("warning:"), msg)
}

// Info prints a dimmed note.
func (p *Printer) Info(msg string) {
	fmt.Fprintln(p.w, p.st.dim.Render(msg))
}

// Success prints a completed action.
func (p *Printer) Success(msg string) {
	fmt.Fprintf(p.w, "%s %s\n", p.st.ok.Render("✓"), msg)
}

// ChangeSetApplied reports a committed batch.
func (p *Printer) ChangeSetApplied(n int) {
	p.Success(fmt.Sprintf("applied %d change(s)", n))
}

// CheckResult prints the outcome of an integrity check. err is the joined
// error returned by ProjectsData.Check.
func (p *Printer) CheckResult(err error) {
	if err == nil {
		p.Success("store is consistent")
		return
	}
	problems := []error{err}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		problems = joined.Unwrap()
	}
	fmt.Fprintf(p.w, "%s %d problem(s):\n", p.st.bad.Render("✗ store is inconsistent"), len(problems))
	for _, e := range problems {
		fmt.Fprintf(p.w, "  %s %s\n", p.st.bad.Render("•"), e.Error())
	}
}

// Notes prints the fixes made by a repair.
func (p *Printer) Notes(title string, notes []string) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintln(p.w, p.st.warn.Render(title))
	for _, n := range notes {
		fmt.Fprintf(p.w, "  %s %s\n", p.st.dim.Render("-"), n)
	}
}

// Rebalanced reports how many containers were respaced.
func (p *Printer) Rebalanced(containers int) {
	if containers == 0 {
		p.Info("no ranks needed respacing")
		return
	}
	p.Success(fmt.Sprintf("respaced ranks in %d container(s)", containers))
}
