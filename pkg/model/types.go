// Package model defines the network elements a feeder study operates on:
// nodes, conductor segments, the conductor catalog and the result records
// produced by a solve. Everything here is plain data with no behavior
// beyond lookups, so the solver and every presentation layer can share it.
package model

// NodeKind separates the single feeding point from consumption points.
type NodeKind string

const (
	KindSource NodeKind = "SOURCE"
	KindLoad   NodeKind = "LOAD"
)

// Node is a bus in the feeder diagram. X and Y are canvas coordinates kept
// for round-tripping diagram files; the solver never reads them. BaseKV is
// authoritative only on the SOURCE node.
type Node struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Kind        NodeKind `json:"kind" yaml:"kind"`
	X           float64  `json:"x,omitempty" yaml:"x,omitempty"`
	Y           float64  `json:"y,omitempty" yaml:"y,omitempty"`
	BaseKV      float64  `json:"base_kv,omitempty" yaml:"base_kv,omitempty"`
	LoadKVA     float64  `json:"load_kva,omitempty" yaml:"load_kva,omitempty"`
	PowerFactor float64  `json:"power_factor,omitempty" yaml:"power_factor,omitempty"`
	Category    string   `json:"category,omitempty" yaml:"category,omitempty"`
}

// Edge is a conductor segment between two nodes. From and To are labels
// from the diagram, not an assertion about flow direction; the solve
// decides orientation. LengthM must be positive to be usable.
type Edge struct {
	ID        string  `json:"id" yaml:"id"`
	From      string  `json:"from" yaml:"from"`
	To        string  `json:"to" yaml:"to"`
	LengthM   float64 `json:"length_m" yaml:"length_m"`
	Conductor string  `json:"conductor,omitempty" yaml:"conductor,omitempty"`
}

// Network is one loadable feeder snapshot. SourceKV may be zero in a file,
// in which case the SOURCE node's BaseKV applies.
type Network struct {
	Name     string  `json:"name,omitempty" yaml:"name,omitempty"`
	SourceKV float64 `json:"source_kv,omitempty" yaml:"source_kv,omitempty"`
	Nodes    []Node  `json:"nodes" yaml:"nodes"`
	Edges    []Edge  `json:"edges" yaml:"edges"`
}

// Source returns the first SOURCE node, if any. Uniqueness is checked by
// the solver, not here.
func (n *Network) Source() (Node, bool) {
	for _, nd := range n.Nodes {
		if nd.Kind == KindSource {
			return nd, true
		}
	}
	return Node{}, false
}

// EffectiveSourceKV resolves the operating voltage: an explicit SourceKV
// wins, otherwise the SOURCE node's BaseKV.
func (n *Network) EffectiveSourceKV() float64 {
	if n.SourceKV > 0 {
		return n.SourceKV
	}
	if src, ok := n.Source(); ok {
		return src.BaseKV
	}
	return 0
}

// NodeResult is the solved electrical state of one node.
type NodeResult struct {
	VoltageKV   float64 `json:"voltage_kv"`
	PerUnit     float64 `json:"per_unit"`
	AngleDeg    float64 `json:"angle_deg"`
	DropPercent float64 `json:"drop_percent"`
}

// EdgeResult is the solved electrical state of one segment. Forward is
// true when current flows from the labeled From end toward To.
type EdgeResult struct {
	CurrentA       float64 `json:"current_a"`
	LoadingPercent float64 `json:"loading_percent"`
	LossKW         float64 `json:"loss_kw"`
	DropKV         float64 `json:"drop_kv"`
	Forward        bool    `json:"forward"`
}

// SystemResult aggregates one solve into feeder-level statistics. Path
// slices hold edge IDs ordered from the far end toward the source.
type SystemResult struct {
	TotalLoadKVA          float64  `json:"total_load_kva"`
	TotalLossKW           float64  `json:"total_loss_kw"`
	MinPerUnit            float64  `json:"min_per_unit"`
	MinPerUnitNode        string   `json:"min_per_unit_node"`
	EfficiencyPercent     float64  `json:"efficiency_percent"`
	TotalLengthM          float64  `json:"total_length_m"`
	TotalResistanceOhm    float64  `json:"total_resistance_ohm"`
	LongestPathEdges      []string `json:"longest_path_edges"`
	CriticalPathEdges     []string `json:"critical_path_edges"`
	CriticalLengthM       float64  `json:"critical_length_m"`
	CriticalResistanceOhm float64  `json:"critical_resistance_ohm"`
}
