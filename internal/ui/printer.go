// Package ui provides the terminal output surface for the pattern hunter
// CLI. Color configuration is decided once at construction and threaded
// through the pipeline rather than toggled through process-global state.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Printer formats operator-facing output. Informational messages go to
// Out (stdout); warnings and errors go to Err (stderr) so machine-readable
// artifacts on stdout stay clean.
type Printer struct {
	Out io.Writer
	Err io.Writer

	header  *color.Color
	sub     *color.Color
	success *color.Color
	warning *color.Color
	failure *color.Color
	info    *color.Color
	dim     *color.Color
}

// NewPrinter creates a printer. Colors are disabled when noColor is set or
// when stdout is not a terminal.
func NewPrinter(noColor bool) *Printer {
	p := &Printer{
		Out:     os.Stdout,
		Err:     os.Stderr,
		header:  color.New(color.FgCyan, color.Bold),
		sub:     color.New(color.FgBlue, color.Bold),
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed),
		info:    color.New(color.FgCyan),
		dim:     color.New(color.Faint),
	}
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		for _, c := range []*color.Color{p.header, p.sub, p.success, p.warning, p.failure, p.info, p.dim} {
			c.DisableColor()
		}
	}
	return p
}

// Header prints a banner for a major workflow phase.
func (p *Printer) Header(format string, args ...any) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(p.Out)
	p.header.Fprintln(p.Out, rule)
	p.header.Fprintf(p.Out, format+"\n", args...)
	p.header.Fprintln(p.Out, rule)
}

// Subheader prints a stage banner.
func (p *Printer) Subheader(format string, args ...any) {
	fmt.Fprintln(p.Out)
	p.sub.Fprintf(p.Out, format+"\n", args...)
	p.sub.Fprintln(p.Out, strings.Repeat("-", 40))
}

// Success prints a checkmarked success line.
func (p *Printer) Success(format string, args ...any) {
	p.success.Fprintf(p.Out, "✓ "+format+"\n", args...)
}

// Warning prints a warning line to stderr.
func (p *Printer) Warning(format string, args ...any) {
	p.warning.Fprintf(p.Err, "⚠ "+format+"\n", args...)
}

// Error prints an error line to stderr.
func (p *Printer) Error(format string, args ...any) {
	p.failure.Fprintf(p.Err, "✗ "+format+"\n", args...)
}

// Info prints an informational line.
func (p *Printer) Info(format string, args ...any) {
	p.info.Fprintf(p.Out, "→ "+format+"\n", args...)
}

// Dim prints a low-emphasis line.
func (p *Printer) Dim(format string, args ...any) {
	p.dim.Fprintf(p.Out, format+"\n", args...)
}
