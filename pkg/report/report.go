// Package report renders solved feeder studies for people: terminal
// tables, CSV and JSON exports, and a self-contained HTML study report.
// All renderers work from the same Data snapshot so every surface
// agrees on ordering and status.
package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/solver"
)

// Element status, derived from policy violations. StatusSkipped marks
// elements the solve never reached; they must read differently from a
// healthy zero.
const (
	StatusOK      = "OK"
	StatusWarn    = "WARN"
	StatusCrit    = "CRIT"
	StatusSkipped = "N/A"
)

// NodeRow is one node prepared for rendering.
type NodeRow struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Kind        string  `json:"kind"`
	LoadKVA     float64 `json:"load_kva"`
	DistanceM   float64 `json:"distance_m"`
	VoltageKV   float64 `json:"voltage_kv"`
	PerUnit     float64 `json:"per_unit"`
	DropPercent float64 `json:"drop_percent"`
	Status      string  `json:"status"`
	Computed    bool    `json:"computed"`
}

// EdgeRow is one segment prepared for rendering.
type EdgeRow struct {
	ID             string  `json:"id"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	Conductor      string  `json:"conductor"`
	LengthM        float64 `json:"length_m"`
	CurrentA       float64 `json:"current_a"`
	LoadingPercent float64 `json:"loading_percent"`
	LossKW         float64 `json:"loss_kw"`
	DropKV         float64 `json:"drop_kv"`
	Status         string  `json:"status"`
	Computed       bool    `json:"computed"`
}

// Data is everything the renderers need for one study.
type Data struct {
	NetworkName  string
	SourceKV     float64
	GeneratedAt  time.Time
	TariffPerKWh decimal.Decimal
	System       model.SystemResult
	Nodes        []NodeRow
	Edges        []EdgeRow
	Violations   []policy.Violation
}

// Build assembles render rows from a solve. Node rows sort worst
// voltage first and segment rows heaviest loading first, with
// unreachable elements at the end; ties keep input order. Distances
// come from re-rooting the network, which is cheap and cannot fail
// after a successful solve.
func Build(net *model.Network, res *solver.Result, violations []policy.Violation) Data {
	d := Data{
		NetworkName: net.Name,
		SourceKV:    net.EffectiveSourceKV(),
		System:      res.System,
		Violations:  violations,
	}

	status := statusBySubject(violations)

	distance := map[string]float64{}
	if topo, err := solver.BuildTopology(net.Nodes, net.Edges); err == nil {
		for _, n := range topo.Order {
			distance[topo.Nodes[n].ID] = topo.DistanceM[n]
		}
	}

	for _, n := range net.Nodes {
		row := NodeRow{
			ID:        n.ID,
			Name:      n.Name,
			Kind:      string(n.Kind),
			LoadKVA:   n.LoadKVA,
			DistanceM: distance[n.ID],
			Status:    StatusSkipped,
		}
		if nr, ok := res.Nodes[n.ID]; ok {
			row.VoltageKV = nr.VoltageKV
			row.PerUnit = nr.PerUnit
			row.DropPercent = nr.DropPercent
			row.Computed = true
			row.Status = orOK(status[n.ID])
		}
		d.Nodes = append(d.Nodes, row)
	}
	sort.SliceStable(d.Nodes, func(i, j int) bool {
		a, b := d.Nodes[i], d.Nodes[j]
		if a.Computed != b.Computed {
			return a.Computed
		}
		return a.PerUnit < b.PerUnit
	})

	for _, e := range net.Edges {
		row := EdgeRow{
			ID:        e.ID,
			From:      e.From,
			To:        e.To,
			Conductor: e.Conductor,
			LengthM:   e.LengthM,
			Status:    StatusSkipped,
		}
		if er, ok := res.Edges[e.ID]; ok {
			row.CurrentA = er.CurrentA
			row.LoadingPercent = er.LoadingPercent
			row.LossKW = er.LossKW
			row.DropKV = er.DropKV
			row.Computed = true
			row.Status = orOK(status[e.ID])
		}
		d.Edges = append(d.Edges, row)
	}
	sort.SliceStable(d.Edges, func(i, j int) bool {
		a, b := d.Edges[i], d.Edges[j]
		if a.Computed != b.Computed {
			return a.Computed
		}
		return a.LoadingPercent > b.LoadingPercent
	})

	return d
}

func statusBySubject(violations []policy.Violation) map[string]string {
	out := map[string]string{}
	for _, v := range violations {
		switch v.Severity {
		case policy.SeverityCritical:
			out[v.Subject] = StatusCrit
		case policy.SeverityWarn:
			if out[v.Subject] != StatusCrit {
				out[v.Subject] = StatusWarn
			}
		}
	}
	return out
}

func orOK(s string) string {
	if s == "" {
		return StatusOK
	}
	return s
}

// AnnualLossCost prices one year of the feeder's resistive losses at a
// flat tariff. Money stays in decimals so the report and any ledger
// derived from it agree to the cent.
func AnnualLossCost(lossKW float64, tariffPerKWh decimal.Decimal) decimal.Decimal {
	const hoursPerYear = 8760
	return decimal.NewFromFloat(lossKW).
		Mul(decimal.NewFromInt(hoursPerYear)).
		Mul(tariffPerKWh).
		Round(2)
}
