package solver

import (
	"math"

	"github.com/voltspan/feederflow/pkg/model"
)

// PQ is one complex power accumulation, real kW and reactive kvar.
type PQ struct {
	P float64
	Q float64
}

// Magnitude returns the apparent power |S| in kVA.
func (pq PQ) Magnitude() float64 { return math.Hypot(pq.P, pq.Q) }

// decompose splits a nameplate (kVA, power factor) rating into real and
// reactive components. Lagging power factor assumed throughout.
func decompose(kva, pf float64) PQ {
	pf = clampPF(pf)
	return PQ{
		P: kva * pf,
		Q: kva * math.Sin(math.Acos(pf)),
	}
}

func clampPF(pf float64) float64 {
	switch {
	case pf < 0:
		return 0
	case pf > 1:
		return 1
	}
	return pf
}

// AggregateLoads is the backward sweep. Walking the BFS order in
// reverse rolls every node's (P, Q) into its parent, so each entry ends
// up holding the total complex load served through the segment above
// that node. The root entry then equals the whole served load, which
// the tests use as a conservation check. The returned slice is indexed
// by arena index and is not mutated afterwards.
func AggregateLoads(t *Topology) []PQ {
	agg := make([]PQ, len(t.Nodes))
	for i := range t.Nodes {
		agg[i] = decompose(t.Nodes[i].LoadKVA, t.Nodes[i].PowerFactor)
	}
	for i := len(t.Order) - 1; i > 0; i-- {
		n := t.Order[i]
		p := t.Parent[n]
		agg[p].P += agg[n].P
		agg[p].Q += agg[n].Q
	}
	return agg
}

// Propagate is the forward sweep. Processing the BFS order root-first
// guarantees every parent voltage is final before its children read it.
// Results come back keyed by element ID so callers never see arena
// indexes; a missing key means the element was unreachable and nothing
// was computed for it.
func Propagate(t *Topology, agg []PQ, sourceKV float64, cat *model.Catalog) (map[string]model.NodeResult, map[string]model.EdgeResult) {
	nodeRes := make(map[string]model.NodeResult, len(t.Order))
	edgeRes := make(map[string]model.EdgeResult, len(t.Order))
	if len(t.Order) == 0 {
		return nodeRes, edgeRes
	}

	voltKV := make([]float64, len(t.Nodes))
	voltKV[t.Root] = sourceKV

	// The source rides at exactly the configured voltage, fixed by
	// construction rather than computed.
	nodeRes[t.Nodes[t.Root].ID] = model.NodeResult{VoltageKV: sourceKV, PerUnit: 1}

	for _, n := range t.Order[1:] {
		parent := uint32(t.Parent[n])
		seg := t.Edges[t.ParentEdge[n]]
		cond := cat.Resolve(seg.Conductor)

		vParent := voltKV[parent]
		if vParent == 0 {
			vParent = sourceKV
		}

		s := agg[n].Magnitude()
		var amps float64
		if vParent > 0 {
			amps = s / (math.Sqrt(3) * vParent)
		}

		r := cond.ROhmPerKM * seg.LengthM / 1000
		x := cond.XOhmPerKM * seg.LengthM / 1000

		// Power factor of the through-flow, not of the local load.
		cosPhi := 1.0
		if s > 0 {
			cosPhi = agg[n].P / s
		}
		sinPhi := math.Sin(math.Acos(clampPF(cosPhi)))

		dropKV := math.Sqrt(3) * amps * (r*cosPhi + x*sinPhi) / 1000
		v := vParent - dropKV
		voltKV[n] = v

		var pu float64
		if sourceKV > 0 {
			pu = v / sourceKV
		}

		var loading float64
		if cond.AmpacityA > 0 {
			loading = amps / cond.AmpacityA * 100
		}

		nodeRes[t.Nodes[n].ID] = model.NodeResult{
			VoltageKV:   v,
			PerUnit:     pu,
			DropPercent: (1 - pu) * 100,
		}
		edgeRes[seg.ID] = model.EdgeResult{
			CurrentA:       amps,
			LoadingPercent: loading,
			LossKW:         3 * amps * amps * r / 1000,
			DropKV:         dropKV,
			Forward:        seg.From == t.Nodes[parent].ID,
		}
	}
	return nodeRes, edgeRes
}
