package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/version"
)

func (m Model) viewHUD() string {
	name := m.data.NetworkName
	if name == "" {
		name = "unnamed feeder"
	}

	crit := 0
	for _, v := range m.data.Violations {
		if v.Severity == policy.SeverityCritical {
			crit++
		}
	}

	violStyle := special
	violText := "NONE"
	if len(m.data.Violations) > 0 {
		violText = fmt.Sprintf("%d (%d CRIT)", len(m.data.Violations), crit)
		violStyle = warning
		if crit > 0 {
			violStyle = danger
		}
	}

	segTitle := highlight.Render(fmt.Sprintf("%s %s", version.AppName, version.Current))
	segNet := subtle.Render(fmt.Sprintf("%s @ %.1f kV", name, m.data.SourceKV))
	segLoad := hudLabelStyle.Render("LOAD:") + hudValueStyle.Render(fmt.Sprintf("%.0f kVA", m.data.System.TotalLoadKVA))
	segLoss := hudLabelStyle.Render("LOSS:") + hudValueStyle.Render(fmt.Sprintf("%.2f kW", m.data.System.TotalLossKW))
	segMinV := hudLabelStyle.Render("MIN V:") + hudValueStyle.Render(fmt.Sprintf("%.4f pu", m.data.System.MinPerUnit))
	segViol := hudLabelStyle.Render("VIOLATIONS:") + violStyle.Render(violText)

	left := lipgloss.JoinHorizontal(lipgloss.Center, segTitle, "  ", segNet)
	right := lipgloss.JoinHorizontal(lipgloss.Center, segLoad, "  ", segLoss, "  ", segMinV, "  ", segViol)

	spacer := m.width - 4 - lipgloss.Width(left) - lipgloss.Width(right)
	if spacer < 2 {
		spacer = 2
	}

	content := lipgloss.JoinHorizontal(lipgloss.Top,
		left,
		lipgloss.NewStyle().Width(spacer).Render(""),
		right,
	)

	width := m.width - 2
	if width < 0 {
		width = 0
	}
	return hudStyle.Width(width).Render(content)
}
