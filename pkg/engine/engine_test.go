package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/solver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeNetwork(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing network file: %v", err)
	}
	return path
}

const healthyNet = `name: plant-feeder
source_kv: 11
nodes:
  - id: src
    kind: SOURCE
    base_kv: 11
  - id: m1
    kind: LOAD
    load_kva: 200
    power_factor: 0.9
edges:
  - id: e1
    from: src
    to: m1
    length_m: 500
    conductor: dog
`

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	cfg.SkipTelemetry = true
	cfg.Headless = true
	cfg.Logger = discardLogger()

	eng, err := New(context.Background(), WithConfig(cfg))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

func TestEngineInitialization(t *testing.T) {
	eng := newTestEngine(t, Config{})

	if eng.Catalog == nil || eng.Catalog.Len() == 0 {
		t.Error("engine should carry the built-in catalog")
	}
	if eng.Rules == nil {
		t.Error("engine should compile the built-in rules")
	}
	if eng.History == nil {
		t.Error("engine should have a history client")
	}
	if eng.Notifier != nil {
		t.Error("no webhook configured, notifier must stay nil")
	}
}

func TestStudyPipeline(t *testing.T) {
	tmp := t.TempDir()
	path := writeNetwork(t, tmp, "plant.yaml", healthyNet)
	outDir := filepath.Join(tmp, "out")

	eng := newTestEngine(t, Config{
		NetworkPath: path,
		OutputDir:   outDir,
		HistoryURL:  filepath.Join(tmp, "ledger.jsonl"),
	})

	study, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if study.Network == nil || study.Network.Name != "plant-feeder" {
		t.Fatalf("network = %+v", study.Network)
	}
	if len(study.Result.Nodes) != 2 {
		t.Errorf("solved %d nodes, want 2", len(study.Result.Nodes))
	}
	if len(study.Violations) != 0 {
		t.Errorf("healthy feeder produced violations: %v", study.Violations)
	}
	if len(study.Report.Nodes) != 2 || len(study.Report.Edges) != 1 {
		t.Errorf("report rows = %d/%d, want 2/1", len(study.Report.Nodes), len(study.Report.Edges))
	}

	// The artifact bundle lands in the output directory.
	for _, name := range []string{"nodes.csv", "segments.csv", "study.json", "study.html"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("missing artifact %s: %v", name, err)
		}
	}

	// One snapshot in the ledger; a second run makes the window deep
	// enough for drift analysis.
	if _, err := os.Stat(filepath.Join(tmp, "ledger.jsonl")); err != nil {
		t.Fatalf("ledger not written: %v", err)
	}
	if study.Drift != nil {
		t.Error("first run has no history window, drift must be nil")
	}

	study2, err := eng.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if study2.Drift == nil {
		t.Error("second run should analyze the two-snapshot window")
	}
}

func TestStudyStrictMode(t *testing.T) {
	// 3000 kVA over squirrel is 137% loading, a critical violation.
	overloaded := `name: hot-feeder
source_kv: 11
nodes:
  - id: src
    kind: SOURCE
    base_kv: 11
  - id: m1
    kind: LOAD
    load_kva: 3000
    power_factor: 0.9
edges:
  - id: e1
    from: src
    to: m1
    length_m: 1000
    conductor: squirrel
`
	tmp := t.TempDir()
	path := writeNetwork(t, tmp, "hot.yaml", overloaded)

	cfg := Config{
		NetworkPath: path,
		HistoryURL:  filepath.Join(tmp, "ledger.jsonl"),
		StrictMode:  true,
	}

	study, err := newTestEngine(t, cfg).Run(context.Background())
	if !errors.Is(err, ErrCriticalViolations) {
		t.Fatalf("err = %v, want ErrCriticalViolations", err)
	}
	if len(study.Violations) == 0 {
		t.Error("strict failure should still carry the violations")
	}

	// Same study without strict mode passes with the violations attached.
	cfg.StrictMode = false
	study, err = newTestEngine(t, cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("non-strict Run: %v", err)
	}
	if len(study.Violations) == 0 {
		t.Error("violations should survive on the study")
	}
}

func TestStudyFatalSolve(t *testing.T) {
	dual := `source_kv: 11
nodes:
  - id: s1
    kind: SOURCE
    base_kv: 11
  - id: s2
    kind: SOURCE
    base_kv: 11
edges:
  - id: e1
    from: s1
    to: s2
    length_m: 100
    conductor: dog
`
	tmp := t.TempDir()
	path := writeNetwork(t, tmp, "dual.yaml", dual)

	study, err := newTestEngine(t, Config{
		NetworkPath: path,
		HistoryURL:  filepath.Join(tmp, "ledger.jsonl"),
	}).Run(context.Background())

	if !errors.Is(err, solver.ErrMultipleSources) {
		t.Fatalf("err = %v, want ErrMultipleSources", err)
	}
	if study == nil || study.Result == nil {
		t.Fatal("fatal solve must still return the study shell")
	}
	if len(study.Result.Nodes) != 0 {
		t.Error("fatal solve should leave the empty display defaults")
	}
	for _, row := range study.Report.Nodes {
		if row.Computed {
			t.Errorf("row %s marked computed after a fatal solve", row.ID)
		}
	}
}

func TestSweepOrderedPoints(t *testing.T) {
	// 2000 kVA base over squirrel: half load is fine, full load warns
	// at 91% and anything past ampacity goes critical.
	net := &model.Network{
		Name:     "growth",
		SourceKV: 11,
		Nodes: []model.Node{
			{ID: "src", Kind: model.KindSource, BaseKV: 11},
			{ID: "m1", Kind: model.KindLoad, LoadKVA: 2000, PowerFactor: 0.9},
		},
		Edges: []model.Edge{
			{ID: "e1", From: "src", To: "m1", LengthM: 1000, Conductor: "squirrel"},
		},
	}

	tmp := t.TempDir()
	eng := newTestEngine(t, Config{
		HistoryURL:     filepath.Join(tmp, "ledger.jsonl"),
		MaxConcurrency: 2,
	})

	scales := []float64{0.5, 1.0, 1.5}
	points, err := eng.Sweep(context.Background(), net, scales)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(points) != len(scales) {
		t.Fatalf("got %d points, want %d", len(points), len(scales))
	}

	for i, p := range points {
		if p.Scale != scales[i] {
			t.Errorf("point %d scale = %g, want %g", i, p.Scale, scales[i])
		}
		if p.Err != "" {
			t.Errorf("point %g failed: %s", p.Scale, p.Err)
		}
	}

	// Load grows linearly, loss quadratically, voltage sags.
	for i := 1; i < len(points); i++ {
		if points[i].TotalLoadKVA <= points[i-1].TotalLoadKVA {
			t.Errorf("load not increasing at point %d", i)
		}
		if points[i].TotalLossKW <= points[i-1].TotalLossKW {
			t.Errorf("loss not increasing at point %d", i)
		}
		if points[i].MinPerUnit >= points[i-1].MinPerUnit {
			t.Errorf("min pu not decreasing at point %d", i)
		}
	}

	if points[0].Violations != 0 {
		t.Errorf("half load should be clean, got %d violations", points[0].Violations)
	}
	if points[1].Violations != 1 || points[1].Critical != 0 {
		t.Errorf("full load should warn once: %+v", points[1])
	}
	if points[2].Critical != 1 {
		t.Errorf("overload should go critical: %+v", points[2])
	}
}

func TestSweepFatalNetwork(t *testing.T) {
	net := &model.Network{
		SourceKV: 11,
		Nodes:    []model.Node{{ID: "m1", Kind: model.KindLoad, LoadKVA: 100}},
	}

	tmp := t.TempDir()
	eng := newTestEngine(t, Config{HistoryURL: filepath.Join(tmp, "ledger.jsonl")})

	points, err := eng.Sweep(context.Background(), net, []float64{0.5, 1.0})
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	for _, p := range points {
		if p.Err == "" {
			t.Errorf("point %g should carry the solve error", p.Scale)
		}
	}
	if stats := eng.Swarm.GetStats(); stats.TasksFailed != 2 {
		t.Errorf("TasksFailed = %d, want 2", stats.TasksFailed)
	}
}

func TestExpandScales(t *testing.T) {
	got := ExpandScales(0.8, 1.2, 0.2)
	want := []float64{0.8, 1.0, 1.2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scale %d = %g, want %g", i, got[i], want[i])
		}
	}

	if ExpandScales(1.0, 0.5, 0.1) != nil {
		t.Error("inverted range should yield nothing")
	}
	if ExpandScales(1.0, 2.0, 0) != nil {
		t.Error("zero step should yield nothing")
	}
	if got := ExpandScales(1.0, 1.0, 0.5); len(got) != 1 || got[0] != 1.0 {
		t.Errorf("degenerate range = %v, want [1]", got)
	}
}
