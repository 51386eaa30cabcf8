package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/report"
)

func (m Model) viewDetails() string {
	if m.detailIsEdge {
		return m.viewEdgeDetails()
	}
	return m.viewNodeDetails()
}

func (m Model) viewNodeDetails() string {
	row, ok := m.nodeRow(m.detailID)
	if !ok {
		return detailsBoxStyle.Render("No bus selected")
	}

	title := "BUS " + row.ID
	if row.Name != "" {
		title += " (" + row.Name + ")"
	}
	header := detailsHeaderStyle.Render(title)

	var lines []string
	lines = append(lines, fmt.Sprintf("%-16s : %s", "Kind", row.Kind))
	if row.LoadKVA > 0 {
		pf := 0.0
		for _, n := range m.network.Nodes {
			if n.ID == row.ID {
				pf = n.PowerFactor
			}
		}
		lines = append(lines, fmt.Sprintf("%-16s : %.1f kVA at pf %.2f", "Demand", row.LoadKVA, pf))
	}
	lines = append(lines, fmt.Sprintf("%-16s : %.0f m from source", "Distance", row.DistanceM))

	var elec string
	if row.Computed {
		elec = lipgloss.JoinVertical(lipgloss.Left,
			special.Render(fmt.Sprintf("%-16s : %.3f kV", "VOLTAGE", row.VoltageKV)),
			special.Render(fmt.Sprintf("%-16s : %.4f pu", "PER UNIT", row.PerUnit)),
			special.Render(fmt.Sprintf("%-16s : %.2f %%", "DROP", row.DropPercent)),
		)
	} else {
		elec = dimStyle.Render("Not reached by the solve. No electrical state.")
	}

	return detailsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		elec,
		"",
		dimStyle.Render(strings.Join(lines, "\n")),
		"",
		m.violationBlock(row.ID, row.Status),
	))
}

func (m Model) viewEdgeDetails() string {
	row, ok := m.edgeRow(m.detailID)
	if !ok {
		return detailsBoxStyle.Render("No segment selected")
	}

	header := detailsHeaderStyle.Render(fmt.Sprintf("SEGMENT %s : %s → %s", row.ID, row.From, row.To))

	cond := m.catalog.Resolve(row.Conductor)
	var lines []string
	lines = append(lines, fmt.Sprintf("%-16s : %s (%s)", "Conductor", cond.ID, cond.Name))
	lines = append(lines, fmt.Sprintf("%-16s : %.4f + j%.4f Ω/km", "Impedance", cond.ROhmPerKM, cond.XOhmPerKM))
	lines = append(lines, fmt.Sprintf("%-16s : %.0f A", "Ampacity", cond.AmpacityA))
	lines = append(lines, fmt.Sprintf("%-16s : %.0f m", "Length", row.LengthM))

	var elec string
	if row.Computed {
		elec = lipgloss.JoinVertical(lipgloss.Left,
			special.Render(fmt.Sprintf("%-16s : %.1f A", "CURRENT", row.CurrentA)),
			special.Render(fmt.Sprintf("%-16s : %.1f %% of ampacity", "LOADING", row.LoadingPercent)),
			special.Render(fmt.Sprintf("%-16s : %.3f kW", "LOSS", row.LossKW)),
			special.Render(fmt.Sprintf("%-16s : %.4f kV", "VOLT DROP", row.DropKV)),
		)
	} else {
		elec = dimStyle.Render("Not reached by the solve. No electrical state.")
	}

	var marks []string
	if m.onCritical[row.ID] {
		marks = append(marks, danger.Render("[CRIT PATH]"))
	}
	if m.onLongest[row.ID] {
		marks = append(marks, warning.Render("[LONGEST]"))
	}

	return detailsBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		header,
		strings.Join(marks, " "),
		"",
		elec,
		"",
		dimStyle.Render(strings.Join(lines, "\n")),
		"",
		m.violationBlock(row.ID, row.Status),
	))
}

// violationBlock lists the policy hits against one element, or a green
// all-clear.
func (m Model) violationBlock(subject, status string) string {
	var hits []string
	for _, v := range m.data.Violations {
		if v.Subject != subject {
			continue
		}
		sev := report.StatusWarn
		if v.Severity == policy.SeverityCritical {
			sev = report.StatusCrit
		}
		line := fmt.Sprintf("[%s] %s: %s", strings.ToUpper(v.Severity), v.RuleID, v.Message)
		hits = append(hits, statusStyle(sev).Render(line))
	}

	if len(hits) == 0 {
		if status == report.StatusSkipped {
			return dimStyle.Render("No policy evaluation (element skipped).")
		}
		return special.Render("Within limits.")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		highlight.Render("VIOLATIONS:"),
		strings.Join(hits, "\n"),
	)
}

func (m Model) edgeRow(id string) (report.EdgeRow, bool) {
	for _, r := range m.data.Edges {
		if r.ID == id {
			return r, true
		}
	}
	return report.EdgeRow{}, false
}
