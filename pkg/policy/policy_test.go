package policy

import (
	"testing"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/solver"
)

func TestDefaultRules(t *testing.T) {
	// 1. Initialize engine with the built-in limits
	eng, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if err := eng.Compile(DefaultRules()); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	// 2. Hand-built solve state covering every band
	nodes := []model.Node{
		{ID: "ok", Kind: model.KindLoad},
		{ID: "sag", Kind: model.KindLoad},
		{ID: "brownout", Kind: model.KindLoad},
		{ID: "island", Kind: model.KindLoad},
	}
	edges := []model.Edge{
		{ID: "cool", Conductor: "dog", LengthM: 100},
		{ID: "warm", Conductor: "dog", LengthM: 100},
		{ID: "hot", Conductor: "squirrel", LengthM: 100},
	}
	res := &solver.Result{
		Nodes: map[string]model.NodeResult{
			"ok":       {PerUnit: 0.99},
			"sag":      {PerUnit: 0.93},
			"brownout": {PerUnit: 0.88},
			// island unreachable, no entry
		},
		Edges: map[string]model.EdgeResult{
			"cool": {LoadingPercent: 40},
			"warm": {LoadingPercent: 91},
			"hot":  {LoadingPercent: 130},
		},
	}

	// 3. Evaluate
	violations := eng.Check(nodes, edges, res)

	want := []struct{ rule, subject, severity string }{
		{"undervoltage-warn", "sag", SeverityWarn},
		{"undervoltage-critical", "brownout", SeverityCritical},
		{"overload-warn", "warm", SeverityWarn},
		{"overload-critical", "hot", SeverityCritical},
	}
	if len(violations) != len(want) {
		t.Fatalf("got %d violations %v, want %d", len(violations), violations, len(want))
	}
	for i, w := range want {
		v := violations[i]
		if v.RuleID != w.rule || v.Subject != w.subject || v.Severity != w.severity {
			t.Errorf("violation %d = %+v, want %s on %s", i, v, w.rule, w.subject)
		}
	}
	if !HasCritical(violations) {
		t.Error("HasCritical should see the brownout")
	}
}

func TestCustomRuleOverRealSolve(t *testing.T) {
	// A long thin feeder pushed hard enough to sag.
	net := []model.Node{
		{ID: "sub", Kind: model.KindSource, BaseKV: 11},
		{ID: "village", Kind: model.KindLoad, LoadKVA: 900, PowerFactor: 0.85, Category: "residential"},
	}
	spans := []model.Edge{
		{ID: "trunk", From: "sub", To: "village", LengthM: 9000, Conductor: "squirrel"},
	}
	res, err := solver.Solve(net, spans, 11, model.DefaultCatalog())
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	eng, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	rules := []Rule{{
		ID: "residential-sag", Scope: ScopeNode, Severity: SeverityWarn,
		Condition: `category == "residential" && drop_percent > 1.0`,
	}}
	if err := eng.Compile(rules); err != nil {
		t.Fatalf("Compile: %v", err)
	}

	violations := eng.Check(net, spans, res)
	if len(violations) != 1 || violations[0].Subject != "village" {
		t.Fatalf("expected one sag violation on village, got %v", violations)
	}
	// No message configured, the condition itself is echoed back.
	if violations[0].Message == "" {
		t.Error("default message should echo the condition")
	}
}

func TestCompileRejectsBadRules(t *testing.T) {
	eng, err := NewEngine()
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	if err := eng.Compile([]Rule{{ID: "x", Scope: "feeder", Condition: "true"}}); err == nil {
		t.Error("unknown scope must fail compilation")
	}
	if err := eng.Compile([]Rule{{ID: "y", Scope: ScopeNode, Condition: "pu <"}}); err == nil {
		t.Error("malformed CEL must fail compilation")
	}
	if err := eng.Compile([]Rule{{ID: "z", Scope: ScopeNode, Condition: "loading_percent > 1.0"}}); err == nil {
		t.Error("edge variables must not leak into node scope")
	}
}
