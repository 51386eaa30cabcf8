// Package tui is the interactive study browser: voltage and loading
// tables, a topology tree with the two distinguished paths marked, and
// a details pane per element. It renders a finished study; solving
// happens before the program starts.
package tui

import (
	"sort"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/report"
	"github.com/voltspan/feederflow/pkg/solver"
)

type ViewState int

const (
	ViewStateNodes ViewState = iota
	ViewStateSegments
	ViewStateTopology
	ViewStateDetails
	ViewStateHelp
)

// TreeLine is one pre-rendered row of the topology view. Prefixes
// depend on sibling order, not on the cursor, so the tree is built
// once up front.
type TreeLine struct {
	NodeID string
	EdgeID string // segment arriving at this node, "" at the source
	Text   string
}

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Tab      key.Binding
	Nodes    key.Binding
	Segments key.Binding
	Topology key.Binding
	Enter    key.Binding
	Back     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Tab, k.Enter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.Nodes, k.Segments, k.Topology, k.Tab},
		{k.Help, k.Quit},
	}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
		Nodes:    key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "buses")),
		Segments: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "segments")),
		Topology: key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "topology")),
		Enter:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "details")),
		Back:     key.NewBinding(key.WithKeys("esc", "b"), key.WithHelp("esc", "back")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type Model struct {
	data    report.Data
	network *model.Network
	catalog *model.Catalog

	state      ViewState
	detailFrom ViewState // list view that opened the details pane
	helpFrom   ViewState

	keys keyMap
	help help.Model

	width  int
	height int

	quitting bool

	treeLines  []TreeLine
	onCritical map[string]bool // edge IDs on the worst-voltage path
	onLongest  map[string]bool

	// target of the details pane
	detailIsEdge bool
	detailID     string

	cursor     int // buses list
	segCursor  int
	treeCursor int
}

// NewModel wraps one solved study for browsing. A nil catalog falls
// back to the built-in table; an unsolvable network still gets the
// table views, just without a topology tree.
func NewModel(net *model.Network, cat *model.Catalog, d report.Data) Model {
	if cat == nil {
		cat = model.DefaultCatalog()
	}

	m := Model{
		data:       d,
		network:    net,
		catalog:    cat,
		state:      ViewStateNodes,
		keys:       defaultKeyMap(),
		help:       help.New(),
		treeLines:  buildTreeLines(net),
		onCritical: map[string]bool{},
		onLongest:  map[string]bool{},
	}
	for _, id := range d.System.CriticalPathEdges {
		m.onCritical[id] = true
	}
	for _, id := range d.System.LongestPathEdges {
		m.onLongest[id] = true
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

// buildTreeLines flattens the rooted feeder into display rows, children
// ordered by ID so repeated renders agree. Returns nil when the network
// has no usable topology.
func buildTreeLines(net *model.Network) []TreeLine {
	topo, err := solver.BuildTopology(net.Nodes, net.Edges)
	if err != nil {
		return nil
	}

	children := make([][]uint32, len(topo.Nodes))
	for _, i := range topo.Order {
		if p := topo.Parent[i]; p >= 0 {
			children[p] = append(children[p], i)
		}
	}
	for i := range children {
		kids := children[i]
		sort.Slice(kids, func(a, b int) bool {
			return topo.Nodes[kids[a]].ID < topo.Nodes[kids[b]].ID
		})
	}

	var lines []TreeLine
	var walk func(i uint32, prefix string, last bool, depth int)
	walk = func(i uint32, prefix string, last bool, depth int) {
		n := topo.Nodes[i]

		marker := "[L]"
		if n.Kind == model.KindSource {
			marker = "[S]"
		}
		label := n.ID
		if n.Name != "" {
			label += " (" + n.Name + ")"
		}

		connector := ""
		childPrefix := prefix
		if depth > 0 {
			connector = "├── "
			bar := "│   "
			if last {
				connector = "└── "
				bar = "    "
			}
			childPrefix = prefix + bar
		}

		edgeID := ""
		if e := topo.ParentEdge[i]; e >= 0 {
			edgeID = topo.Edges[e].ID
		}

		lines = append(lines, TreeLine{
			NodeID: n.ID,
			EdgeID: edgeID,
			Text:   prefix + connector + marker + " " + label,
		})

		kids := children[i]
		for k, kid := range kids {
			walk(kid, childPrefix, k == len(kids)-1, depth+1)
		}
	}
	walk(topo.Root, "", true, 0)
	return lines
}
