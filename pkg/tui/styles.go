package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/voltspan/feederflow/pkg/report"
)

var (
	colorAccent  = lipgloss.Color("#00FF99") // healthy / in-limit
	colorHeader  = lipgloss.Color("#874BFD")
	colorText    = lipgloss.Color("#E2E8F0")
	colorSubtext = lipgloss.Color("#64748B")
	colorDanger  = lipgloss.Color("#FF0055") // critical violations
	colorWarning = lipgloss.Color("#F59E0B")

	subtle    = lipgloss.NewStyle().Foreground(colorSubtext)
	dimStyle  = lipgloss.NewStyle().Foreground(colorSubtext)
	highlight = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	special   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	danger    = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	warning   = lipgloss.NewStyle().Foreground(colorWarning)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorHeader).
			Bold(true).
			Padding(0, 1)

	hudStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorHeader).
			Padding(0, 1).
			Foreground(colorText)

	hudLabelStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Bold(true).
			MarginRight(1)

	hudValueStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	listSelectedStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(lipgloss.Color("#331832")).
				Bold(true)

	listNormalStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	detailsBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(colorAccent).
			Padding(1, 2).
			MarginTop(1)

	detailsHeaderStyle = lipgloss.NewStyle().
				Foreground(colorHeader).
				Bold(true).
				Underline(true).
				MarginBottom(1)

	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSubtext).
			Padding(1, 2).
			MarginTop(1)
)

// statusStyle picks the severity color for an element status cell.
func statusStyle(status string) lipgloss.Style {
	switch status {
	case report.StatusCrit:
		return danger
	case report.StatusWarn:
		return warning
	case report.StatusSkipped:
		return dimStyle
	default:
		return special
	}
}
