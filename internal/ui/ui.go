// Package ui prints human-readable status lines for gasync commands.
// Everything goes to one writer, stderr by default, so command output meant
// for pipes (config dumps, diffs) stays clean on stdout.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled status lines.
type Printer struct {
	w  io.Writer
	st styles
}

// New returns a Printer writing to w, or to os.Stderr when w is nil.
func New(w io.Writer) *Printer {
	if w == nil {
		w = os.Stderr
	}
	return &Printer{w: w, st: newStyles(lipgloss.NewRenderer(w))}
}

// Writer returns the underlying writer.
func (p *Printer) Writer() io.Writer {
	return p.w
}

// Header prints a section title.
func (p *Printer) Header(title string) {
	fmt.Fprintln(p.w, p.st.header.Render(title))
}

// Success prints a completed action.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.st.success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// Warn prints a non-fatal problem.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintln(p.w, p.st.warning.Render("⚠")+" "+fmt.Sprintf(format, args...))
}

// Error prints a failure message.
func (p *Printer) Error(msg string) {
	fmt.Fprintln(p.w, p.st.danger.Render("error:")+" "+msg)
}

// Info prints a de-emphasized line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintln(p.w, p.st.muted.Render(fmt.Sprintf(format, args...)))
}

// Fields prints aligned "key: value" rows in the given order.
func (p *Printer) Fields(rows [][2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r[0]))
	}
	for _, r := range rows {
		pad := strings.Repeat(" ", width-lipgloss.Width(r[0]))
		fmt.Fprintf(p.w, "  %s%s  %s\n", p.st.key.Render(r[0]+":"), pad, r[1])
	}
}

// List prints a bulleted list, or a muted placeholder when empty.
func (p *Printer) List(items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintln(p.w, "  "+p.st.muted.Render(empty))
		return
	}
	for _, it := range items {
		fmt.Fprintln(p.w, "  • "+it)
	}
}

// Status is the severity of a Step line.
type Status int

const (
	// StatusOK marks a completed step.
	StatusOK Status = iota
	// StatusSkipped marks a step with nothing to do.
	StatusSkipped
	// StatusWarn marks a best-effort step that did not complete.
	StatusWarn
	// StatusFailed marks a failed step.
	StatusFailed
)

// Step prints one pipeline step line such as "✓ commit  chore: bump".
func (p *Printer) Step(status Status, name, detail string) {
	var symbol string
	switch status {
	case StatusOK:
		symbol = p.st.success.Render("✓")
	case StatusSkipped:
		symbol = p.st.muted.Render("-")
	case StatusWarn:
		symbol = p.st.warning.Render("⚠")
	default:
		symbol = p.st.danger.Render("✗")
	}
	line := fmt.Sprintf("  %s %-10s", symbol, name)
	if detail != "" {
		line += " " + p.st.muted.Render(detail)
	}
	fmt.Fprintln(p.w, strings.TrimRight(line, " "))
}

// DiffLine prints one unified-diff style line. op is '+', '-' or ' '.
func (p *Printer) DiffLine(op byte, text string) {
	line := string(op) + text
	switch op {
	case '+':
		line = p.st.success.UnsetBold().Render(line)
	case '-':
		line = p.st.danger.UnsetBold().Render(line)
	}
	fmt.Fprintln(p.w, line)
}
