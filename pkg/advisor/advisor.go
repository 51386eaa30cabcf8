// Package advisor proposes conductor upgrades for segments operating
// outside their limits. Suggestions are verified by re-solving the
// upgraded network, never by extrapolation.
package advisor

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/voltspan/feederflow/pkg/config"
	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/report"
	"github.com/voltspan/feederflow/pkg/solver"
)

// Reasons a segment becomes an upgrade candidate.
const (
	ReasonOverload     = "overload"
	ReasonUndervoltage = "undervoltage"
)

// Suggestion is one proposed conductor swap.
type Suggestion struct {
	EdgeID            string  `json:"edge_id"`
	From              string  `json:"from"`
	To                string  `json:"to"`
	Reason            string  `json:"reason"`
	FromConductor     string  `json:"from_conductor"`
	ToConductor       string  `json:"to_conductor"`
	CurrentA          float64 `json:"current_a"`
	OldAmpacityA      float64 `json:"old_ampacity_a"`
	NewAmpacityA      float64 `json:"new_ampacity_a"`
	OldLoadingPercent float64 `json:"old_loading_percent"`
	NewLoadingPercent float64 `json:"new_loading_percent"`
}

// Plan is a verified upgrade proposal: the suggestions plus the solved
// before/after numbers backing them.
type Plan struct {
	Suggestions []Suggestion `json:"suggestions"`

	MinPerUnitBefore float64 `json:"min_per_unit_before"`
	MinPerUnitAfter  float64 `json:"min_per_unit_after"`
	LossKWBefore     float64 `json:"loss_kw_before"`
	LossKWAfter      float64 `json:"loss_kw_after"`
	ViolationsBefore int     `json:"violations_before"`
	ViolationsAfter  int     `json:"violations_after"`

	// AnnualSaving prices the loss reduction at the configured tariff.
	AnnualSaving decimal.Decimal `json:"annual_saving"`

	// Upgraded is the network copy with suggestions applied.
	Upgraded *model.Network `json:"-"`
}

// Advisor searches the conductor catalog for the cheapest fix.
type Advisor struct {
	Catalog      *model.Catalog
	Rules        *policy.Engine
	Limits       config.LimitsConfig
	TariffPerKWh decimal.Decimal
}

// New builds an advisor. A nil catalog falls back to the built-in table.
func New(cat *model.Catalog, rules *policy.Engine, limits config.LimitsConfig, tariffPerKWh decimal.Decimal) *Advisor {
	if cat == nil {
		cat = model.DefaultCatalog()
	}
	return &Advisor{
		Catalog:      cat,
		Rules:        rules,
		Limits:       limits,
		TariffPerKWh: tariffPerKWh,
	}
}

// Advise solves the network, collects violating segments, picks the
// smallest catalog conductor that clears each one, and proves the plan
// with a second solve. An empty plan with nil error means the feeder
// is already healthy.
func (a *Advisor) Advise(net *model.Network) (*Plan, error) {
	base, err := solver.SolveNetwork(net, a.Catalog)
	if err != nil {
		return nil, fmt.Errorf("baseline solve failed: %w", err)
	}

	violationsBefore := a.checkViolations(net, base)

	candidates := a.collectCandidates(net, base)

	plan := &Plan{
		MinPerUnitBefore: base.System.MinPerUnit,
		MinPerUnitAfter:  base.System.MinPerUnit,
		LossKWBefore:     base.System.TotalLossKW,
		LossKWAfter:      base.System.TotalLossKW,
		ViolationsBefore: len(violationsBefore),
		ViolationsAfter:  len(violationsBefore),
		AnnualSaving:     decimal.Zero,
	}

	if len(candidates) == 0 {
		if len(violationsBefore) == 0 {
			return plan, nil
		}
		// Violations exist but no segment is actionable (e.g. a sagging
		// bus with every feeding segment already on the largest wire).
		return nil, fmt.Errorf("no feasible conductor upgrade clears the violations")
	}

	// Catalog sorted thermally: the loop takes the first entry that
	// clears, so order makes "first" mean "smallest".
	byAmpacity := a.Catalog.Entries()
	sort.SliceStable(byAmpacity, func(i, j int) bool {
		return byAmpacity[i].AmpacityA < byAmpacity[j].AmpacityA
	})

	upgraded := cloneNetwork(net)
	var suggestions []Suggestion

	for i := range upgraded.Edges {
		edge := &upgraded.Edges[i]
		reason, flagged := candidates[edge.ID]
		if !flagged {
			continue
		}

		res, solved := base.Edges[edge.ID]
		if !solved {
			continue
		}

		current := a.Catalog.Resolve(edge.Conductor)
		pick, found := a.pickConductor(byAmpacity, current, res.CurrentA, reason)
		if !found || pick.ID == current.ID {
			continue
		}

		edge.Conductor = pick.ID
		suggestions = append(suggestions, Suggestion{
			EdgeID:            edge.ID,
			From:              edge.From,
			To:                edge.To,
			Reason:            reason,
			FromConductor:     current.ID,
			ToConductor:       pick.ID,
			CurrentA:          res.CurrentA,
			OldAmpacityA:      current.AmpacityA,
			NewAmpacityA:      pick.AmpacityA,
			OldLoadingPercent: res.LoadingPercent,
		})
	}

	if len(suggestions) == 0 {
		if len(violationsBefore) == 0 {
			return plan, nil
		}
		return nil, fmt.Errorf("no feasible conductor upgrade clears the violations")
	}

	// Verify by re-solve. Topology is unchanged, so a failure here means
	// the baseline was broken too and we already returned.
	after, err := solver.SolveNetwork(upgraded, a.Catalog)
	if err != nil {
		return nil, fmt.Errorf("verification solve failed: %w", err)
	}

	for i := range suggestions {
		if res, ok := after.Edges[suggestions[i].EdgeID]; ok {
			suggestions[i].NewLoadingPercent = res.LoadingPercent
		}
	}

	violationsAfter := a.checkViolations(upgraded, after)

	plan.Suggestions = suggestions
	plan.MinPerUnitAfter = after.System.MinPerUnit
	plan.LossKWAfter = after.System.TotalLossKW
	plan.ViolationsAfter = len(violationsAfter)
	plan.AnnualSaving = report.AnnualLossCost(base.System.TotalLossKW-after.System.TotalLossKW, a.TariffPerKWh)
	plan.Upgraded = upgraded

	return plan, nil
}

// collectCandidates flags segments past the loading band plus every
// segment feeding an undervoltage bus.
func (a *Advisor) collectCandidates(net *model.Network, res *solver.Result) map[string]string {
	candidates := map[string]string{}

	for id, er := range res.Edges {
		if er.LoadingPercent > a.Limits.WarnLoadingPercent {
			candidates[id] = ReasonOverload
		}
	}

	topo, err := solver.BuildTopology(net.Nodes, net.Edges)
	if err != nil {
		return candidates
	}
	for id, nr := range res.Nodes {
		if nr.PerUnit >= a.Limits.WarnPerUnit {
			continue
		}
		idx, ok := topo.IndexOf(id)
		if !ok {
			continue
		}
		segIDs, _, _ := topo.PathToRoot(idx, a.Catalog)
		for _, segID := range segIDs {
			if _, taken := candidates[segID]; !taken {
				candidates[segID] = ReasonUndervoltage
			}
		}
	}

	return candidates
}

// pickConductor finds the smallest entry that clears the reason.
// Upgrades never raise resistance or lower ampacity.
func (a *Advisor) pickConductor(byAmpacity []model.Conductor, current model.Conductor, currentA float64, reason string) (model.Conductor, bool) {
	switch reason {
	case ReasonOverload:
		// Clear back to the warning band, not just under the rating.
		required := currentA * 100 / a.Limits.WarnLoadingPercent
		for _, cand := range byAmpacity {
			if cand.AmpacityA >= required && cand.ROhmPerKM <= current.ROhmPerKM {
				return cand, true
			}
		}
	case ReasonUndervoltage:
		for _, cand := range byAmpacity {
			if cand.ROhmPerKM < current.ROhmPerKM && cand.AmpacityA >= current.AmpacityA {
				return cand, true
			}
		}
	}
	return model.Conductor{}, false
}

func (a *Advisor) checkViolations(net *model.Network, res *solver.Result) []policy.Violation {
	if a.Rules == nil {
		return nil
	}
	return a.Rules.Check(net.Nodes, net.Edges, res)
}

func cloneNetwork(net *model.Network) *model.Network {
	out := &model.Network{
		Name:     net.Name,
		SourceKV: net.SourceKV,
		Nodes:    make([]model.Node, len(net.Nodes)),
		Edges:    make([]model.Edge, len(net.Edges)),
	}
	copy(out.Nodes, net.Nodes)
	copy(out.Edges, net.Edges)
	return out
}
