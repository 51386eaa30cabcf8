package tui

import (
	"fmt"
	"strings"

	"github.com/voltspan/feederflow/pkg/report"
)

// viewTopology renders the feeder tree rooted at the source. Lines on
// the worst-voltage path and the longest run carry markers; the
// worst-voltage marker wins when a segment sits on both.
func (m Model) viewTopology() string {
	s := strings.Builder{}

	s.WriteString(dimStyle.Render("   TOPOLOGY (source outward)") + "\n")
	legend := "   " + danger.Render("[CRIT PATH]") + dimStyle.Render(" worst voltage run   ") +
		warning.Render("[LONGEST]") + dimStyle.Render(" longest run")
	s.WriteString(legend + "\n")
	s.WriteString(dimStyle.Render("   "+strings.Repeat("─", 60)) + "\n")

	if len(m.treeLines) == 0 {
		return s.String() + "\n   " + subtle.Render("No topology. The network does not solve as a radial feeder.")
	}

	start, end := m.window(len(m.treeLines), m.treeCursor)

	for i := start; i < end; i++ {
		line := m.treeLines[i]

		cursor := "  "
		if i == m.treeCursor {
			cursor = "> "
		}

		tag := ""
		switch {
		case m.onCritical[line.EdgeID] && line.EdgeID != "":
			tag = " " + danger.Render("[CRIT PATH]")
		case m.onLongest[line.EdgeID] && line.EdgeID != "":
			tag = " " + warning.Render("[LONGEST]")
		}

		// Per-unit voltage next to each reachable bus.
		volts := ""
		if row, ok := m.nodeRow(line.NodeID); ok && row.Computed {
			volts = dimStyle.Render(fmt.Sprintf("  %.4f pu", row.PerUnit))
		}

		text := line.Text
		if i == m.treeCursor {
			text = listSelectedStyle.Render(text)
		} else {
			text = listNormalStyle.Render(text)
		}

		s.WriteString(cursor + text + volts + tag + "\n")
	}

	if end < len(m.treeLines) {
		s.WriteString(dimStyle.Render("   ..."))
	}

	if unreachable := len(m.data.Nodes) - len(m.treeLines); unreachable > 0 {
		s.WriteString("\n" + dimStyle.Render(fmt.Sprintf("   (%d buses unreachable from the source)", unreachable)))
	}

	return s.String()
}

func (m Model) nodeRow(id string) (report.NodeRow, bool) {
	for _, r := range m.data.Nodes {
		if r.ID == id {
			return r, true
		}
	}
	return report.NodeRow{}, false
}
