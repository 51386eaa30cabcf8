package tui

import (
	"fmt"
	"strings"
)

// viewNodes renders the bus table, worst per-unit voltage first.
func (m Model) viewNodes() string {
	s := strings.Builder{}

	header := fmt.Sprintf("  %-14s | %-6s | %9s | %8s | %7s | %-6s",
		"BUS", "KIND", "VOLTS kV", "PER UNIT", "DROP %", "STATUS")
	s.WriteString(dimStyle.Render(header) + "\n")
	s.WriteString(dimStyle.Render("  "+strings.Repeat("─", 64)) + "\n")

	if len(m.data.Nodes) == 0 {
		s.WriteString("\n   " + subtle.Render("Nothing to show. The network has no buses."))
		return s.String()
	}

	start, end := m.window(len(m.data.Nodes), m.cursor)

	for i := start; i < end; i++ {
		row := m.data.Nodes[i]

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		volts, pu, drop := "-", "-", "-"
		if row.Computed {
			volts = fmt.Sprintf("%.3f", row.VoltageKV)
			pu = fmt.Sprintf("%.4f", row.PerUnit)
			drop = fmt.Sprintf("%.2f", row.DropPercent)
		}

		base := fmt.Sprintf("%-14s | %-6s | %9s | %8s | %7s | ",
			trunc(row.ID, 14), row.Kind, volts, pu, drop)

		line := cursor + base + statusStyle(row.Status).Render(row.Status)
		if i == m.cursor {
			line = cursor + listSelectedStyle.Render(base+row.Status)
		}
		s.WriteString(line + "\n")
	}

	if end < len(m.data.Nodes) {
		s.WriteString(dimStyle.Render("   ..."))
	}

	return s.String()
}

func trunc(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
