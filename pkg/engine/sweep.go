package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.opentelemetry.io/otel/attribute"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/solver"
	"github.com/voltspan/feederflow/pkg/swarm"
)

// ScalePoint is one sweep sample: the feeder re-solved with every load
// multiplied by Scale.
type ScalePoint struct {
	Scale             float64 `json:"scale"`
	TotalLoadKVA      float64 `json:"total_load_kva"`
	TotalLossKW       float64 `json:"total_loss_kw"`
	MinPerUnit        float64 `json:"min_per_unit"`
	MinPerUnitNode    string  `json:"min_per_unit_node"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
	Violations        int     `json:"violations"`
	Critical          int     `json:"critical"`
	Err               string  `json:"error,omitempty"`
}

// Sweep re-solves the network once per scale factor on the worker
// pool. Points come back in input order regardless of completion
// order, and a per-point failure lands on its row instead of aborting
// the sweep. Each call gets a fresh pool; the previous one stays
// readable for stats.
func (e *Engine) Sweep(ctx context.Context, net *model.Network, scales []float64) ([]ScalePoint, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Sweep")
	defer span.End()

	if net == nil {
		return nil, fmt.Errorf("sweep needs a network")
	}
	if len(scales) == 0 {
		return nil, fmt.Errorf("sweep needs at least one scale factor")
	}

	pool := swarm.NewEngine(e.config.MaxConcurrency)
	e.Swarm = pool
	pool.Start(ctx)
	defer pool.Stop()

	e.Logger.Info("Starting sweep", "network", net.Name, "points", len(scales))

	// Each task owns exactly one slot, so the slice needs no lock.
	points := make([]ScalePoint, len(scales))
	for i, scale := range scales {
		i, scale := i, scale
		pool.Submit(func(ctx context.Context) error {
			points[i] = e.solveAtScale(net, scale)
			if points[i].Err != "" {
				return errors.New(points[i].Err)
			}
			return nil
		})
	}
	pool.Drain()

	span.SetAttributes(attribute.Int("sweep.points", len(points)))
	return points, nil
}

// solveAtScale runs one full solve plus policy check over a copy of
// the network with all loads multiplied by scale.
func (e *Engine) solveAtScale(net *model.Network, scale float64) ScalePoint {
	point := ScalePoint{Scale: scale}

	scaled := &model.Network{
		Name:     net.Name,
		SourceKV: net.SourceKV,
		Nodes:    make([]model.Node, len(net.Nodes)),
		Edges:    make([]model.Edge, len(net.Edges)),
	}
	copy(scaled.Nodes, net.Nodes)
	copy(scaled.Edges, net.Edges)
	for i := range scaled.Nodes {
		scaled.Nodes[i].LoadKVA *= scale
	}

	res, err := solver.SolveNetwork(scaled, e.Catalog)
	if err != nil {
		point.Err = err.Error()
		return point
	}

	point.TotalLoadKVA = res.System.TotalLoadKVA
	point.TotalLossKW = res.System.TotalLossKW
	point.MinPerUnit = res.System.MinPerUnit
	point.MinPerUnitNode = res.System.MinPerUnitNode
	point.EfficiencyPercent = res.System.EfficiencyPercent

	if e.Rules != nil {
		for _, v := range e.Rules.Check(scaled.Nodes, scaled.Edges, res) {
			point.Violations++
			if v.Severity == policy.SeverityCritical {
				point.Critical++
			}
		}
	}

	return point
}

// ExpandScales builds the scale list for a from/to/step request,
// inclusive of both endpoints within float tolerance.
func ExpandScales(from, to, step float64) []float64 {
	if step <= 0 || to < from {
		return nil
	}
	var scales []float64
	for s := from; s <= to+step*1e-9; s += step {
		scales = append(scales, math.Round(s*1e9)/1e9)
	}
	return scales
}
