// Package style provides consistent terminal styling using Lipgloss.
package style

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	// Success style for positive outcomes
	Success = lipgloss.NewStyle().
		Foreground(lipgloss.Color("10")). // Green
		Bold(true)

	// Warning style for cautionary messages
	Warning = lipgloss.NewStyle().
		Foreground(lipgloss.Color("11")). // Yellow
		Bold(true)

	// Error style for failures
	Error = lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")). // Red
		Bold(true)

	// Info style for informational messages
	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")) // Blue

	// Dim style for secondary information
	Dim = lipgloss.NewStyle().
		Foreground(lipgloss.Color("8")) // Gray

	// Bold style for emphasis
	Bold = lipgloss.NewStyle().
		Bold(true)
)

// Rule is the separator line used around command banners.
func Rule() string { return Dim.Render(strings.Repeat("=", 60)) }

// Prefix glyphs. Rendered lazily so Plain() takes effect.
func SuccessPrefix() string { return Success.Render("✓") }
func WarningPrefix() string { return Warning.Render("⚠") }
func ErrorPrefix() string   { return Error.Render("✗") }
func ArrowPrefix() string   { return Info.Render("→") }

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Plain disables colour output, e.g. when stdout is redirected to a file.
func Plain() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// Auto disables colour when stdout is not a terminal.
func Auto() {
	if !IsTerminal(os.Stdout) {
		Plain()
	}
}
