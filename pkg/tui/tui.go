package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			if m.state == ViewStateHelp {
				m.state = m.helpFrom
			} else {
				m.helpFrom = m.state
				m.state = ViewStateHelp
			}

		case key.Matches(msg, m.keys.Back):
			switch m.state {
			case ViewStateDetails:
				m.state = m.detailFrom
			case ViewStateHelp:
				m.state = m.helpFrom
			}

		case key.Matches(msg, m.keys.Up):
			m.move(-1)

		case key.Matches(msg, m.keys.Down):
			m.move(1)

		case key.Matches(msg, m.keys.Tab):
			switch m.state {
			case ViewStateNodes:
				m.state = ViewStateSegments
			case ViewStateSegments:
				m.state = ViewStateTopology
			case ViewStateTopology:
				m.state = ViewStateNodes
			}

		case key.Matches(msg, m.keys.Nodes):
			if m.listView() {
				m.state = ViewStateNodes
			}

		case key.Matches(msg, m.keys.Segments):
			if m.listView() {
				m.state = ViewStateSegments
			}

		case key.Matches(msg, m.keys.Topology):
			if m.listView() {
				m.state = ViewStateTopology
			}

		case key.Matches(msg, m.keys.Enter):
			m.openDetails()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
	}

	return m, nil
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	switch m.state {
	case ViewStateNodes:
		body = m.viewNodes()
	case ViewStateSegments:
		body = m.viewSegments()
	case ViewStateTopology:
		body = m.viewTopology()
	case ViewStateDetails:
		body = m.viewDetails()
	case ViewStateHelp:
		body = m.viewHelp()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.viewHUD(),
		body,
		"",
		m.help.View(m.keys),
	)
}

func (m Model) listView() bool {
	return m.state == ViewStateNodes || m.state == ViewStateSegments || m.state == ViewStateTopology
}

// move shifts the cursor of whichever list is active, clamped to its
// length.
func (m *Model) move(delta int) {
	var cursor *int
	var total int

	switch m.state {
	case ViewStateNodes:
		cursor, total = &m.cursor, len(m.data.Nodes)
	case ViewStateSegments:
		cursor, total = &m.segCursor, len(m.data.Edges)
	case ViewStateTopology:
		cursor, total = &m.treeCursor, len(m.treeLines)
	default:
		return
	}

	*cursor += delta
	if *cursor < 0 {
		*cursor = 0
	}
	if *cursor >= total {
		*cursor = total - 1
	}
	if *cursor < 0 {
		*cursor = 0
	}
}

func (m *Model) openDetails() {
	switch m.state {
	case ViewStateNodes:
		if m.cursor < 0 || m.cursor >= len(m.data.Nodes) {
			return
		}
		m.detailIsEdge = false
		m.detailID = m.data.Nodes[m.cursor].ID
	case ViewStateSegments:
		if m.segCursor < 0 || m.segCursor >= len(m.data.Edges) {
			return
		}
		m.detailIsEdge = true
		m.detailID = m.data.Edges[m.segCursor].ID
	case ViewStateTopology:
		if m.treeCursor < 0 || m.treeCursor >= len(m.treeLines) {
			return
		}
		m.detailIsEdge = false
		m.detailID = m.treeLines[m.treeCursor].NodeID
	default:
		return
	}

	m.detailFrom = m.state
	m.state = ViewStateDetails
}

// window centers a fixed-size viewport on the cursor, shared by every
// list view so they scroll the same way.
func (m Model) window(total, cursor int) (int, int) {
	size := m.height - 9
	if size < 5 {
		size = 5
	}

	start := cursor - size/2
	if start < 0 {
		start = 0
	}

	end := start + size
	if end > total {
		end = total
		start = end - size
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

func (m Model) viewHelp() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		detailsHeaderStyle.Render("KEY BINDINGS"),
		m.help.FullHelpView(m.keys.FullHelp()),
	)
	return helpBoxStyle.Render(content)
}
