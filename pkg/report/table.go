package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Future-Glass Palette
	colorNeonGreen  = lipgloss.Color("#00FF99") // Healthy / Success
	colorNeonPurple = lipgloss.Color("#874BFD") // Header / Border
	colorTextMain   = lipgloss.Color("#E2E8F0") // Main Text
	colorTextSub    = lipgloss.Color("#64748B") // Subtext
	colorDanger     = lipgloss.Color("#FF0055") // Critical
	colorWarning    = lipgloss.Color("#F59E0B") // Warning

	titleStyle = lipgloss.NewStyle().
			Foreground(colorNeonPurple).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(colorTextSub).
			Bold(true)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorNeonPurple).
			Padding(1, 2)

	okStyle   = lipgloss.NewStyle().Foreground(colorNeonGreen)
	warnStyle = lipgloss.NewStyle().Foreground(colorWarning)
	critStyle = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(colorTextSub)
	mainStyle = lipgloss.NewStyle().Foreground(colorTextMain)

	// Icon Styles (Text Based - No Emojis)
	iconCritical = lipgloss.NewStyle().Foreground(colorDanger).SetString("[CRITICAL]")
	iconWarn     = lipgloss.NewStyle().Foreground(colorWarning).SetString("[WARN]")
	iconSafe     = lipgloss.NewStyle().Foreground(colorNeonGreen).SetString("[SAFE]")
)

func statusCell(status string) string {
	switch status {
	case StatusCrit:
		return critStyle.Render(status)
	case StatusWarn:
		return warnStyle.Render(status)
	case StatusSkipped:
		return dimStyle.Render(status)
	default:
		return okStyle.Render(status)
	}
}

// RenderSummary draws the feeder-level card shown after every solve.
func RenderSummary(d Data) string {
	sys := d.System

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n\n",
		titleStyle.Render("STUDY "+d.NetworkName),
		dimStyle.Render(fmt.Sprintf("source %.1f kV", d.SourceKV)))

	fmt.Fprintf(&b, "Connected load   %s\n", mainStyle.Render(fmt.Sprintf("%.1f kVA", sys.TotalLoadKVA)))
	fmt.Fprintf(&b, "Series loss      %s\n", mainStyle.Render(fmt.Sprintf("%.4f kW", sys.TotalLossKW)))
	fmt.Fprintf(&b, "Efficiency       %s\n", mainStyle.Render(fmt.Sprintf("%.2f %%", sys.EfficiencyPercent)))

	minStyle := okStyle
	switch {
	case sys.MinPerUnit < 0.90:
		minStyle = critStyle
	case sys.MinPerUnit < 0.95:
		minStyle = warnStyle
	}
	fmt.Fprintf(&b, "Lowest voltage   %s\n",
		minStyle.Render(fmt.Sprintf("%.5f pu at %s", sys.MinPerUnit, sys.MinPerUnitNode)))

	fmt.Fprintf(&b, "Network          %s\n",
		dimStyle.Render(fmt.Sprintf("%.0f m, %.4f ohm total", sys.TotalLengthM, sys.TotalResistanceOhm)))
	fmt.Fprintf(&b, "Critical path    %s\n",
		dimStyle.Render(fmt.Sprintf("%d segments, %.0f m, %.4f ohm", len(sys.CriticalPathEdges), sys.CriticalLengthM, sys.CriticalResistanceOhm)))
	fmt.Fprintf(&b, "Longest run      %s",
		dimStyle.Render(fmt.Sprintf("%d segments", len(sys.LongestPathEdges))))

	if !d.TariffPerKWh.IsZero() {
		fmt.Fprintf(&b, "\nLoss cost        %s",
			warnStyle.Render(AnnualLossCost(sys.TotalLossKW, d.TariffPerKWh).StringFixed(2)+"/yr"))
	}

	return cardStyle.Render(b.String())
}

// RenderNodeTable draws the per-node table, worst voltage first.
func RenderNodeTable(d Data) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-14s %-8s %10s %10s %10s %9s  %s",
		"NODE", "KIND", "LOAD kVA", "DIST m", "VOLT kV", "PU", "STATUS")))
	b.WriteByte('\n')

	for _, row := range d.Nodes {
		voltage, pu := "-", "-"
		if row.Computed {
			voltage = fmt.Sprintf("%.4f", row.VoltageKV)
			pu = fmt.Sprintf("%.5f", row.PerUnit)
		}
		fmt.Fprintf(&b, "%-14s %-8s %10.1f %10.0f %10s %9s  %s\n",
			row.ID, row.Kind, row.LoadKVA, row.DistanceM, voltage, pu, statusCell(row.Status))
	}
	return b.String()
}

// RenderEdgeTable draws the per-segment table, heaviest loading first.
func RenderEdgeTable(d Data) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%-12s %-18s %-10s %8s %9s %8s %10s  %s",
		"SEGMENT", "SPAN", "COND", "LEN m", "AMPS", "LOAD %", "LOSS kW", "STATUS")))
	b.WriteByte('\n')

	for _, row := range d.Edges {
		span := row.From + ">" + row.To
		current, loading, loss := "-", "-", "-"
		if row.Computed {
			current = fmt.Sprintf("%.2f", row.CurrentA)
			loading = fmt.Sprintf("%.1f", row.LoadingPercent)
			loss = fmt.Sprintf("%.4f", row.LossKW)
		}
		fmt.Fprintf(&b, "%-12s %-18s %-10s %8.0f %9s %8s %10s  %s\n",
			row.ID, span, row.Conductor, row.LengthM, current, loading, loss, statusCell(row.Status))
	}
	return b.String()
}

// RenderViolations lists rule findings with text icons, critical first
// within each element's original order.
func RenderViolations(d Data) string {
	if len(d.Violations) == 0 {
		return iconSafe.String() + " " + dimStyle.Render("all limits satisfied")
	}

	var b strings.Builder
	for _, v := range d.Violations {
		icon := iconWarn.String()
		if v.Severity == "critical" {
			icon = iconCritical.String()
		}
		fmt.Fprintf(&b, "%s %s %s %s\n",
			icon,
			mainStyle.Render(v.Subject),
			dimStyle.Render(v.RuleID),
			v.Message)
	}
	return strings.TrimRight(b.String(), "\n")
}
