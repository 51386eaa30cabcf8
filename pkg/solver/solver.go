// Package solver implements the non-iterative forward/backward sweep
// load flow used for radial feeder studies. A solve reads one immutable
// snapshot of nodes, segments and source voltage and returns freshly
// built results; it performs no I/O, keeps no state between calls, and
// is safe to run concurrently on distinct snapshots.
//
// The computation is four strictly sequential phases: root the edge set
// at the SOURCE node, aggregate loads from the leaves inward, propagate
// voltage from the source outward, then derive feeder statistics and
// the two distinguished paths.
package solver

import (
	"errors"
	"fmt"

	"github.com/voltspan/feederflow/pkg/model"
)

// Fatal solve conditions. Everything else degrades silently: unknown
// conductors fall back to the catalog default and unreachable nodes are
// left out of the result maps.
var (
	ErrNoSource        = errors.New("no SOURCE node in network")
	ErrMultipleSources = errors.New("more than one SOURCE node in network")
	ErrNotRadial       = errors.New("network is not radial")
	ErrBadVoltage      = errors.New("source voltage must be positive")
)

// Result bundles everything one solve computes. A key missing from
// Nodes or Edges means "never computed", which callers must render
// differently from a computed zero.
type Result struct {
	Nodes  map[string]model.NodeResult `json:"nodes"`
	Edges  map[string]model.EdgeResult `json:"edges"`
	System model.SystemResult          `json:"system"`
}

// Empty returns the degraded-display shape callers fall back to when a
// solve fails: zero summary fields, empty paths, no per-element results.
func Empty() *Result {
	return &Result{
		Nodes: map[string]model.NodeResult{},
		Edges: map[string]model.EdgeResult{},
		System: model.SystemResult{
			LongestPathEdges:  []string{},
			CriticalPathEdges: []string{},
		},
	}
}

// Solve runs the full sweep over one snapshot. A nil catalog means the
// built-in table. The input slices are copied up front, so the caller
// may keep mutating its own working set while results are consumed.
func Solve(nodes []model.Node, edges []model.Edge, sourceKV float64, cat *model.Catalog) (*Result, error) {
	if sourceKV <= 0 {
		return nil, fmt.Errorf("%w: got %g kV", ErrBadVoltage, sourceKV)
	}
	if cat == nil {
		cat = model.DefaultCatalog()
	}

	// 1. Root the undirected edge set at the SOURCE node.
	topo, err := BuildTopology(nodes, edges)
	if err != nil {
		return nil, err
	}

	// 2. Backward sweep: leaf loads roll up into through-flows.
	agg := AggregateLoads(topo)

	// 3. Forward sweep: currents, drops and losses, source outward.
	nodeRes, edgeRes := Propagate(topo, agg, sourceKV, cat)

	// 4. Feeder statistics and the two distinguished paths.
	sys := Summarize(topo, nodeRes, edgeRes, cat)

	return &Result{Nodes: nodeRes, Edges: edgeRes, System: sys}, nil
}

// SolveNetwork is the convenience form over a loaded network file,
// using its effective source voltage.
func SolveNetwork(net *model.Network, cat *model.Catalog) (*Result, error) {
	return Solve(net.Nodes, net.Edges, net.EffectiveSourceKV(), cat)
}
