package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/report"
	"github.com/voltspan/feederflow/pkg/solver"
)

// studyModel solves a small feeder with one thermally critical segment:
// 3000 kVA on 1 km of squirrel draws 157 A against a 115 A rating. The
// second spur is longer but nearly unloaded, so the worst-voltage run
// and the longest run are different segments.
func studyModel(t *testing.T) Model {
	t.Helper()

	net := &model.Network{
		Name:     "depot-11kv",
		SourceKV: 11,
		Nodes: []model.Node{
			{ID: "src", Kind: model.KindSource},
			{ID: "m1", Kind: model.KindLoad, LoadKVA: 3000, PowerFactor: 0.9},
			{ID: "m2", Name: "Pump House", Kind: model.KindLoad, LoadKVA: 100, PowerFactor: 0.9},
		},
		Edges: []model.Edge{
			{ID: "e1", From: "src", To: "m1", LengthM: 1000, Conductor: "squirrel"},
			{ID: "e2", From: "src", To: "m2", LengthM: 1500, Conductor: "dog"},
		},
	}

	res, err := solver.SolveNetwork(net, nil)
	if err != nil {
		t.Fatalf("SolveNetwork: %v", err)
	}

	rules, err := policy.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := rules.Compile(policy.DefaultRules()); err != nil {
		t.Fatalf("Compile: %v", err)
	}
	violations := rules.Check(net.Nodes, net.Edges, res)
	if len(violations) != 1 {
		t.Fatalf("scenario drifted: violations = %v", violations)
	}

	return NewModel(net, nil, report.Build(net, res, violations))
}

func press(t *testing.T, m Model, k string) Model {
	t.Helper()

	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}

	updated, _ := m.Update(msg)
	return updated.(Model)
}

func TestNodesViewWorstVoltageFirst(t *testing.T) {
	m := studyModel(t)

	if m.data.Nodes[0].ID != "m1" {
		t.Fatalf("first row = %s, want the worst-voltage bus m1", m.data.Nodes[0].ID)
	}

	view := m.View()
	for _, want := range []string{"BUS", "PER UNIT", "0.9693", "depot-11kv", "3100 kVA"} {
		if !strings.Contains(view, want) {
			t.Errorf("nodes view missing %q\ngot:\n%s", want, view)
		}
	}
	if !strings.Contains(view, "1 (1 CRIT)") {
		t.Errorf("HUD does not flag the critical violation\ngot:\n%s", view)
	}
}

func TestSegmentsViewLoadingAndStatus(t *testing.T) {
	m := press(t, studyModel(t), "tab")

	if m.state != ViewStateSegments {
		t.Fatalf("state after tab = %v, want segments", m.state)
	}
	if m.data.Edges[0].ID != "e1" {
		t.Fatalf("first segment = %s, want the heaviest-loaded e1", m.data.Edges[0].ID)
	}

	view := m.View()
	for _, want := range []string{"SEGMENT", "CONDUCTOR", "squirrel", "136.9", "CRIT"} {
		if !strings.Contains(view, want) {
			t.Errorf("segments view missing %q\ngot:\n%s", want, view)
		}
	}
}

func TestTopologyViewMarksPaths(t *testing.T) {
	m := press(t, studyModel(t), "3")

	view := m.View()
	for _, want := range []string{
		"[S] src",
		"├── [L] m1",
		"└── [L] m2 (Pump House)",
		"[CRIT PATH]",
		"[LONGEST]",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("topology view missing %q\ngot:\n%s", want, view)
		}
	}
}

func TestDetailsPaneForBusAndSegment(t *testing.T) {
	m := studyModel(t)

	// Cursor starts on the worst bus.
	m = press(t, m, "enter")
	if m.state != ViewStateDetails {
		t.Fatalf("state after enter = %v, want details", m.state)
	}
	view := m.View()
	for _, want := range []string{"BUS m1", "PER UNIT", "0.9693", "Within limits."} {
		if !strings.Contains(view, want) {
			t.Errorf("bus details missing %q\ngot:\n%s", want, view)
		}
	}

	m = press(t, m, "esc")
	if m.state != ViewStateNodes {
		t.Fatalf("esc returned to %v, want nodes view", m.state)
	}

	m = press(t, m, "2")
	m = press(t, m, "enter")
	view = m.View()
	for _, want := range []string{"SEGMENT e1", "136.9", "VIOLATIONS:", "thermal rating", "[CRIT PATH]"} {
		if !strings.Contains(view, want) {
			t.Errorf("segment details missing %q\ngot:\n%s", want, view)
		}
	}
}

func TestHelpToggle(t *testing.T) {
	m := press(t, studyModel(t), "?")
	if m.state != ViewStateHelp {
		t.Fatalf("state after ? = %v, want help", m.state)
	}
	if view := m.View(); !strings.Contains(view, "KEY BINDINGS") {
		t.Errorf("help view missing title\ngot:\n%s", view)
	}

	m = press(t, m, "?")
	if m.state != ViewStateNodes {
		t.Errorf("second ? returned to %v, want nodes view", m.state)
	}
}

func TestQuitBlanksView(t *testing.T) {
	m := press(t, studyModel(t), "q")
	if !m.quitting {
		t.Fatal("q did not set quitting")
	}
	if m.View() != "" {
		t.Error("quitting view not blank")
	}
}

func TestUnsolvableNetworkStillBrowses(t *testing.T) {
	net := &model.Network{
		Name: "headless",
		Nodes: []model.Node{
			{ID: "a", Kind: model.KindLoad, LoadKVA: 50, PowerFactor: 0.9},
		},
	}

	m := NewModel(net, nil, report.Build(net, solver.Empty(), nil))

	if view := m.View(); !strings.Contains(view, "N/A") {
		t.Errorf("skipped bus not shown as N/A\ngot:\n%s", view)
	}

	m = press(t, m, "3")
	if view := m.View(); !strings.Contains(view, "No topology") {
		t.Errorf("topology view missing degraded notice\ngot:\n%s", view)
	}
}
