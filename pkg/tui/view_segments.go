package tui

import (
	"fmt"
	"strings"
)

// viewSegments renders the segment table, heaviest loading first.
func (m Model) viewSegments() string {
	s := strings.Builder{}

	header := fmt.Sprintf("  %-10s | %-17s | %-9s | %8s | %7s | %8s | %-6s",
		"SEGMENT", "SPAN", "CONDUCTOR", "AMPS", "LOAD %", "LOSS kW", "STATUS")
	s.WriteString(dimStyle.Render(header) + "\n")
	s.WriteString(dimStyle.Render("  "+strings.Repeat("─", 82)) + "\n")

	if len(m.data.Edges) == 0 {
		s.WriteString("\n   " + subtle.Render("Nothing to show. The network has no segments."))
		return s.String()
	}

	start, end := m.window(len(m.data.Edges), m.segCursor)

	for i := start; i < end; i++ {
		row := m.data.Edges[i]

		cursor := "  "
		if i == m.segCursor {
			cursor = "> "
		}

		span := trunc(row.From+"→"+row.To, 17)

		amps, loading, loss := "-", "-", "-"
		if row.Computed {
			amps = fmt.Sprintf("%.1f", row.CurrentA)
			loading = fmt.Sprintf("%.1f", row.LoadingPercent)
			loss = fmt.Sprintf("%.3f", row.LossKW)
		}

		base := fmt.Sprintf("%-10s | %-17s | %-9s | %8s | %7s | %8s | ",
			trunc(row.ID, 10), span, trunc(row.Conductor, 9), amps, loading, loss)

		line := cursor + base + statusStyle(row.Status).Render(row.Status)
		if i == m.segCursor {
			line = cursor + listSelectedStyle.Render(base+row.Status)
		}
		s.WriteString(line + "\n")
	}

	if end < len(m.data.Edges) {
		s.WriteString(dimStyle.Render("   ..."))
	}

	return s.String()
}
