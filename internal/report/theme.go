// Package report renders run history and witness summaries for the CLI.
package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/mattjoyce/witnessgen/internal/history"
)

// Theme centralizes all styling for CLI output.
type Theme struct {
	StatusOK      lipgloss.Style
	StatusRunning lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusCached  lipgloss.Style

	Border    lipgloss.Style
	Header    lipgloss.Style
	Dim       lipgloss.Style
	Highlight lipgloss.Style
}

func NewDefaultTheme() Theme {
	return Theme{
		StatusOK:      lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")),
		StatusRunning: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")),
		StatusFailed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")),
		StatusCached:  lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("#874BFD")),
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#61AFEF")).
			Padding(0, 1),
		Dim:       lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
	}
}

// Status picks the style for a ledger status.
func (t Theme) Status(s history.Status) lipgloss.Style {
	switch s {
	case history.StatusSucceeded:
		return t.StatusOK
	case history.StatusRunning:
		return t.StatusRunning
	case history.StatusCached:
		return t.StatusCached
	default:
		return t.StatusFailed
	}
}
