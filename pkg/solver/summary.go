package solver

import "github.com/voltspan/feederflow/pkg/model"

// Summarize condenses one solved network into feeder-level statistics.
// Length and resistance totals cover every input segment whether or not
// it carried a result; the load total is the raw nameplate sum, not the
// aggregated through-flow. Every scan runs in input or traversal order
// so identical inputs always produce identical summaries.
func Summarize(t *Topology, nodeRes map[string]model.NodeResult, edgeRes map[string]model.EdgeResult, cat *model.Catalog) model.SystemResult {
	sys := model.SystemResult{
		LongestPathEdges:  []string{},
		CriticalPathEdges: []string{},
	}

	for i := range t.Nodes {
		sys.TotalLoadKVA += t.Nodes[i].LoadKVA
	}

	for k := range t.Edges {
		seg := t.Edges[k]
		sys.TotalLengthM += seg.LengthM
		sys.TotalResistanceOhm += cat.Resolve(seg.Conductor).ROhmPerKM * seg.LengthM / 1000
		if er, ok := edgeRes[seg.ID]; ok {
			sys.TotalLossKW += er.LossKW
		}
	}

	// Lowest per-unit voltage wins on strict less-than, so the first
	// node found in traversal order keeps a tie.
	minIdx := t.Root
	first := true
	for _, n := range t.Order {
		nr, ok := nodeRes[t.Nodes[n].ID]
		if !ok {
			continue
		}
		if first || nr.PerUnit < sys.MinPerUnit {
			sys.MinPerUnit = nr.PerUnit
			sys.MinPerUnitNode = t.Nodes[n].ID
			minIdx = n
			first = false
		}
	}

	// The 0.9 factor approximates the aggregate power factor of the
	// denominator. Kept as the documented approximation, not an exact
	// input/output energy ratio.
	if denom := 0.9*sys.TotalLoadKVA + sys.TotalLossKW; denom > 0 {
		sys.EfficiencyPercent = (1 - sys.TotalLossKW/denom) * 100
	}

	// Geometrically farthest node; the walk back to the root is empty
	// when the root itself is farthest.
	far := t.Root
	for _, n := range t.Order {
		if t.DistanceM[n] > t.DistanceM[far] {
			far = n
		}
	}
	if longest, _, _ := t.PathToRoot(far, cat); longest != nil {
		sys.LongestPathEdges = longest
	}

	// Electrically worst node. Unreachable nodes carry no result, so
	// the anchor is always on the tree and the walk always terminates
	// at the root.
	if sys.MinPerUnitNode != "" {
		if segIDs, lengthM, resistance := t.PathToRoot(minIdx, cat); segIDs != nil {
			sys.CriticalPathEdges = segIDs
			sys.CriticalLengthM = lengthM
			sys.CriticalResistanceOhm = resistance
		}
	}

	return sys
}
