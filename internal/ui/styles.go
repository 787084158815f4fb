// Package ui renders the terminal result lines of the CI helper commands.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Colors used for result lines.
var (
	SuccessColor = lipgloss.Color("42")
	ErrorColor   = lipgloss.Color("196")
	WarnColor    = lipgloss.Color("214")
	MutedColor   = lipgloss.Color("245")
	LinkColor    = lipgloss.Color("33")
)

// Styles for result lines.
var (
	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SuccessColor)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ErrorColor)

	WarnStyle = lipgloss.NewStyle().
			Foreground(WarnColor)

	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	LinkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(LinkColor)
)

// Success renders a success line.
func Success(format string, args ...any) string {
	return SuccessStyle.Render("✓ " + fmt.Sprintf(format, args...))
}

// Diagnostic describes a failure to print before a non-zero exit.
type Diagnostic struct {
	Category   string
	Message    string
	Suggestion string
	RunURL     string
}

// Render renders the diagnostic as one headline plus optional hint lines.
func (d Diagnostic) Render() string {
	var sb strings.Builder

	sb.WriteString(ErrorStyle.Render(fmt.Sprintf("✗ %s", d.Category)))
	sb.WriteString(": ")
	sb.WriteString(d.Message)

	if d.Suggestion != "" {
		sb.WriteString("\n  ")
		sb.WriteString(WarnStyle.Render(d.Suggestion))
	}

	if d.RunURL != "" {
		sb.WriteString("\n  ")
		sb.WriteString(MutedStyle.Render("run: "))
		sb.WriteString(LinkStyle.Render(d.RunURL))
	}

	return sb.String()
}
