// Package ui renders styled terminal output for the evo CLI.
// Styling degrades to plain text when stdout is not a terminal.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Lipgloss styles for consistent terminal output
var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // Green
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // Red
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // Yellow
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // Blue
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // Gray
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func render(s lipgloss.Style, text string) string {
	if !isTerminal() {
		return text
	}
	return s.Render(text)
}

// Themed message functions
func Success(text string) string { return render(successStyle, "✓ "+text) }
func Error(text string) string   { return render(errorStyle, "✗ "+text) }
func Warning(text string) string { return render(warningStyle, "⚠ "+text) }
func Info(text string) string    { return render(infoStyle, "ℹ "+text) }

// Basic color functions
func Green(text string) string  { return render(successStyle, text) }
func Red(text string) string    { return render(errorStyle, text) }
func Yellow(text string) string { return render(warningStyle, text) }
func Blue(text string) string   { return render(infoStyle, text) }
func Dim(text string) string    { return render(dimStyle, text) }
func Bold(text string) string   { return render(boldStyle, text) }

// FormatError renders an error for terminal display.
func FormatError(err error) string { return Error(err.Error()) }
