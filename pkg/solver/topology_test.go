package solver

import (
	"errors"
	"testing"

	"github.com/voltspan/feederflow/pkg/model"
)

func TestBuildTopologyOrderAndDistances(t *testing.T) {
	// Y feeder:  sub --(300m)-- j1 --(200m)-- l1
	//                            \--(400m)-- l2
	// The l2 segment is labeled backwards on purpose; discovery must not
	// care which end the diagram called "from".
	nodes := []model.Node{
		{ID: "sub", Kind: model.KindSource, BaseKV: 11},
		{ID: "j1", Kind: model.KindLoad},
		{ID: "l1", Kind: model.KindLoad, LoadKVA: 40, PowerFactor: 0.9},
		{ID: "l2", Kind: model.KindLoad, LoadKVA: 25, PowerFactor: 0.85},
	}
	edges := []model.Edge{
		{ID: "e1", From: "sub", To: "j1", LengthM: 300},
		{ID: "e2", From: "j1", To: "l1", LengthM: 200},
		{ID: "e3", From: "l2", To: "j1", LengthM: 400},
	}

	topo, err := BuildTopology(nodes, edges)
	if err != nil {
		t.Fatalf("BuildTopology: %v", err)
	}

	if got := topo.Nodes[topo.Root].ID; got != "sub" {
		t.Fatalf("root = %s, want sub", got)
	}
	if len(topo.Order) != 4 {
		t.Fatalf("traversal covers %d nodes, want 4", len(topo.Order))
	}
	if topo.Order[0] != topo.Root {
		t.Fatal("traversal order must start at the root")
	}

	// Every node's parent must appear earlier in the order.
	seen := map[uint32]int{}
	for pos, n := range topo.Order {
		seen[n] = pos
	}
	for _, n := range topo.Order[1:] {
		p := uint32(topo.Parent[n])
		if seen[p] >= seen[n] {
			t.Fatalf("parent of %s visited after it", topo.Nodes[n].ID)
		}
	}

	wantDist := map[string]float64{"sub": 0, "j1": 300, "l1": 500, "l2": 700}
	for id, want := range wantDist {
		i, ok := topo.IndexOf(id)
		if !ok {
			t.Fatalf("node %s missing from index", id)
		}
		if got := topo.DistanceM[i]; got != want {
			t.Errorf("distance(%s) = %v, want %v", id, got, want)
		}
	}

	// l2 was reached through the reverse-labeled e3.
	i, _ := topo.IndexOf("l2")
	if topo.Edges[topo.ParentEdge[i]].ID != "e3" {
		t.Errorf("l2 parent edge = %s, want e3", topo.Edges[topo.ParentEdge[i]].ID)
	}
}

func TestBuildTopologyRequiresExactlyOneSource(t *testing.T) {
	loadsOnly := []model.Node{
		{ID: "a", Kind: model.KindLoad},
		{ID: "b", Kind: model.KindLoad},
	}
	if _, err := BuildTopology(loadsOnly, nil); !errors.Is(err, ErrNoSource) {
		t.Fatalf("no source: got %v, want ErrNoSource", err)
	}

	twoSources := []model.Node{
		{ID: "a", Kind: model.KindSource},
		{ID: "b", Kind: model.KindSource},
	}
	if _, err := BuildTopology(twoSources, nil); !errors.Is(err, ErrMultipleSources) {
		t.Fatalf("two sources: got %v, want ErrMultipleSources", err)
	}
}

func TestBuildTopologyRejectsLoop(t *testing.T) {
	nodes := []model.Node{
		{ID: "sub", Kind: model.KindSource},
		{ID: "a", Kind: model.KindLoad},
		{ID: "b", Kind: model.KindLoad},
	}
	edges := []model.Edge{
		{ID: "e1", From: "sub", To: "a", LengthM: 100},
		{ID: "e2", From: "a", To: "b", LengthM: 100},
		{ID: "e3", From: "b", To: "sub", LengthM: 100},
	}
	if _, err := BuildTopology(nodes, edges); !errors.Is(err, ErrNotRadial) {
		t.Fatalf("triangle: got %v, want ErrNotRadial", err)
	}
}

func TestBuildTopologyRejectsParallelSegments(t *testing.T) {
	nodes := []model.Node{
		{ID: "sub", Kind: model.KindSource},
		{ID: "a", Kind: model.KindLoad},
	}
	edges := []model.Edge{
		{ID: "e1", From: "sub", To: "a", LengthM: 100},
		{ID: "e2", From: "a", To: "sub", LengthM: 120},
	}
	if _, err := BuildTopology(nodes, edges); !errors.Is(err, ErrNotRadial) {
		t.Fatalf("doubled span: got %v, want ErrNotRadial", err)
	}
}

func TestBuildTopologySkipsDanglingAndUnreachable(t *testing.T) {
	nodes := []model.Node{
		{ID: "sub", Kind: model.KindSource},
		{ID: "a", Kind: model.KindLoad},
		{ID: "island", Kind: model.KindLoad},
	}
	edges := []model.Edge{
		{ID: "e1", From: "sub", To: "a", LengthM: 100},
		{ID: "ghost", From: "a", To: "nowhere", LengthM: 50},
	}

	topo, err := BuildTopology(nodes, edges)
	if err != nil {
		t.Fatalf("BuildTopology: %v", err)
	}
	if len(topo.Order) != 2 {
		t.Fatalf("traversal covers %d nodes, want 2", len(topo.Order))
	}
	i, _ := topo.IndexOf("island")
	if topo.Reachable(i) {
		t.Error("island must not be reachable")
	}
	if topo.Parent[i] != -1 || topo.ParentEdge[i] != -1 {
		t.Error("island must keep -1 parent links")
	}
}

func TestPathToRootWalksFarEndFirst(t *testing.T) {
	nodes := []model.Node{
		{ID: "sub", Kind: model.KindSource},
		{ID: "a", Kind: model.KindLoad},
		{ID: "b", Kind: model.KindLoad},
	}
	edges := []model.Edge{
		{ID: "e1", From: "sub", To: "a", LengthM: 1000, Conductor: "dog"},
		{ID: "e2", From: "a", To: "b", LengthM: 500, Conductor: "dog"},
	}
	topo, err := BuildTopology(nodes, edges)
	if err != nil {
		t.Fatalf("BuildTopology: %v", err)
	}

	i, _ := topo.IndexOf("b")
	segIDs, lengthM, resistance := topo.PathToRoot(i, model.DefaultCatalog())
	if len(segIDs) != 2 || segIDs[0] != "e2" || segIDs[1] != "e1" {
		t.Fatalf("path = %v, want [e2 e1]", segIDs)
	}
	if lengthM != 1500 {
		t.Errorf("path length = %v, want 1500", lengthM)
	}
	// 1.5 km of dog at 0.2733 ohm/km.
	want := 0.2733 * 1.5
	if diff := resistance - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("path resistance = %v, want %v", resistance, want)
	}

	// Anchoring at the root yields the empty walk.
	segIDs, lengthM, resistance = topo.PathToRoot(topo.Root, model.DefaultCatalog())
	if len(segIDs) != 0 || lengthM != 0 || resistance != 0 {
		t.Errorf("root walk should be empty, got %v / %v / %v", segIDs, lengthM, resistance)
	}
}
