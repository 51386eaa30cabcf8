package solver

import (
	"fmt"

	"github.com/voltspan/feederflow/pkg/model"
)

// branch is one adjacency entry: the neighbor's arena index and the
// position of the connecting segment in the input edge list.
type branch struct {
	peer uint32
	edge int32
}

// Topology is the rooted-tree view of a feeder. Nodes and edges live in
// arenas kept in input order; parent links are arena indexes, so the
// tree needs no pointer graph. Order holds the BFS visitation sequence
// with the root first, and it is the only iteration order the sweeps
// use, which keeps repeated solves of the same input identical.
type Topology struct {
	Nodes      []model.Node
	Edges      []model.Edge
	Root       uint32
	Order      []uint32
	Parent     []int32
	ParentEdge []int32
	DistanceM  []float64

	idx map[string]uint32
}

// BuildTopology roots the undirected edge set at the single SOURCE
// node. It fails when no SOURCE exists, when more than one does, or
// when the reachable part of the network is not a tree. Segments whose
// endpoints are unknown contribute nothing to adjacency; nodes the
// search never reaches stay out of Order and keep Parent -1.
func BuildTopology(nodes []model.Node, edges []model.Edge) (*Topology, error) {
	t := &Topology{
		Nodes:      make([]model.Node, len(nodes)),
		Edges:      make([]model.Edge, len(edges)),
		Parent:     make([]int32, len(nodes)),
		ParentEdge: make([]int32, len(nodes)),
		DistanceM:  make([]float64, len(nodes)),
		idx:        make(map[string]uint32, len(nodes)),
	}
	copy(t.Nodes, nodes)
	copy(t.Edges, edges)

	// 1. Arena index. On a duplicated ID the first occurrence wins.
	for i := range t.Nodes {
		if _, dup := t.idx[t.Nodes[i].ID]; !dup {
			t.idx[t.Nodes[i].ID] = uint32(i)
		}
		t.Parent[i] = -1
		t.ParentEdge[i] = -1
	}

	// 2. The root is the unique SOURCE node.
	root := int32(-1)
	for i := range t.Nodes {
		if t.Nodes[i].Kind != model.KindSource {
			continue
		}
		if root >= 0 {
			return nil, fmt.Errorf("%w: %s and %s", ErrMultipleSources, t.Nodes[root].ID, t.Nodes[i].ID)
		}
		root = int32(i)
	}
	if root < 0 {
		return nil, ErrNoSource
	}
	t.Root = uint32(root)

	// 3. Undirected adjacency, each segment listed under both ends.
	adj := make([][]branch, len(t.Nodes))
	for k := range t.Edges {
		from, okFrom := t.idx[t.Edges[k].From]
		to, okTo := t.idx[t.Edges[k].To]
		if !okFrom || !okTo {
			continue
		}
		adj[from] = append(adj[from], branch{peer: to, edge: int32(k)})
		adj[to] = append(adj[to], branch{peer: from, edge: int32(k)})
	}

	// 4. BFS outward from the root. Reaching a visited node over any
	// segment other than the one we arrived through means the reachable
	// network closes a loop or doubles a span, and the sweep results
	// would be meaningless.
	visited := make([]bool, len(t.Nodes))
	visited[t.Root] = true
	t.Order = append(t.Order, t.Root)
	queue := []uint32{t.Root}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, b := range adj[curr] {
			if b.edge == t.ParentEdge[curr] {
				continue
			}
			if visited[b.peer] {
				return nil, fmt.Errorf("%w: segment %s closes a loop", ErrNotRadial, t.Edges[b.edge].ID)
			}
			visited[b.peer] = true
			t.Parent[b.peer] = int32(curr)
			t.ParentEdge[b.peer] = b.edge
			t.DistanceM[b.peer] = t.DistanceM[curr] + t.Edges[b.edge].LengthM
			t.Order = append(t.Order, b.peer)
			queue = append(queue, b.peer)
		}
	}
	return t, nil
}

// IndexOf maps a node ID to its arena index.
func (t *Topology) IndexOf(id string) (uint32, bool) {
	i, ok := t.idx[id]
	return i, ok
}

// Reachable reports whether the search reached arena index i.
func (t *Topology) Reachable(i uint32) bool {
	return i == t.Root || t.Parent[i] >= 0
}

// PathToRoot walks parent links upward from arena index i, collecting
// segment IDs in walk order, far end first. Length and resistance
// accumulate over the same walk so callers get all three in one pass.
func (t *Topology) PathToRoot(i uint32, cat *model.Catalog) (segIDs []string, lengthM, resistanceOhm float64) {
	for curr := i; t.Parent[curr] >= 0; curr = uint32(t.Parent[curr]) {
		seg := t.Edges[t.ParentEdge[curr]]
		segIDs = append(segIDs, seg.ID)
		lengthM += seg.LengthM
		resistanceOhm += cat.Resolve(seg.Conductor).ROhmPerKM * seg.LengthM / 1000
	}
	return segIDs, lengthM, resistanceOhm
}
