// Package policy evaluates operating-limit rules against solved feeder
// state. Rules are CEL expressions over per-node or per-segment
// variables, so site owners can express their own planning limits in
// the config file without code changes.
package policy

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/checker/decls"
	"gopkg.in/yaml.v3"

	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/solver"
)

const (
	ScopeNode = "node"
	ScopeEdge = "edge"

	SeverityWarn     = "warn"
	SeverityCritical = "critical"
)

// Rule is one user-defined check. Condition is a CEL expression that
// must evaluate to bool; a true result records a violation.
type Rule struct {
	ID        string `json:"id" yaml:"id"`
	Scope     string `json:"scope" yaml:"scope"`
	Severity  string `json:"severity" yaml:"severity"`
	Condition string `json:"condition" yaml:"condition"`
	Message   string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Violation is one rule match against one element.
type Violation struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

// Engine holds the CEL environments and the compiled rule programs.
// Node and segment rules see different variable sets, so each scope
// compiles against its own environment.
type Engine struct {
	nodeEnv *cel.Env
	edgeEnv *cel.Env
	rules   []compiledRule
}

type compiledRule struct {
	rule Rule
	prg  cel.Program
}

// NewEngine initializes both CEL environments with the supported
// variable declarations.
func NewEngine() (*Engine, error) {
	nodeEnv, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("id", decls.String),
			decls.NewVar("name", decls.String),
			decls.NewVar("kind", decls.String),
			decls.NewVar("category", decls.String),
			decls.NewVar("load_kva", decls.Double),
			decls.NewVar("pu", decls.Double),
			decls.NewVar("voltage_kv", decls.Double),
			decls.NewVar("drop_percent", decls.Double),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating node CEL env: %w", err)
	}

	edgeEnv, err := cel.NewEnv(
		cel.Declarations(
			decls.NewVar("id", decls.String),
			decls.NewVar("conductor", decls.String),
			decls.NewVar("length_m", decls.Double),
			decls.NewVar("current_a", decls.Double),
			decls.NewVar("loading_percent", decls.Double),
			decls.NewVar("loss_kw", decls.Double),
			decls.NewVar("drop_kv", decls.Double),
			decls.NewVar("forward", decls.Bool),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating edge CEL env: %w", err)
	}

	return &Engine{nodeEnv: nodeEnv, edgeEnv: edgeEnv}, nil
}

// Compile adds rules to the engine, keeping their order. Compilation
// failures name the offending rule.
func (e *Engine) Compile(rules []Rule) error {
	for _, r := range rules {
		var env *cel.Env
		switch r.Scope {
		case ScopeNode:
			env = e.nodeEnv
		case ScopeEdge:
			env = e.edgeEnv
		default:
			return fmt.Errorf("rule %s: unknown scope %q", r.ID, r.Scope)
		}

		ast, issues := env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}
		e.rules = append(e.rules, compiledRule{rule: r, prg: prg})
	}
	return nil
}

// Check evaluates every compiled rule against every solved element,
// node rules over nodes in input order and segment rules over segments
// in input order. Elements without results were unreachable and are
// skipped. Evaluation errors on a single element are logged and do not
// abort the run.
func (e *Engine) Check(nodes []model.Node, edges []model.Edge, res *solver.Result) []Violation {
	var out []Violation

	for _, n := range nodes {
		nr, ok := res.Nodes[n.ID]
		if !ok {
			continue
		}
		vars := map[string]interface{}{
			"id":           n.ID,
			"name":         n.Name,
			"kind":         string(n.Kind),
			"category":     n.Category,
			"load_kva":     n.LoadKVA,
			"pu":           nr.PerUnit,
			"voltage_kv":   nr.VoltageKV,
			"drop_percent": nr.DropPercent,
		}
		out = append(out, e.matchScope(ScopeNode, n.ID, vars)...)
	}

	for _, seg := range edges {
		er, ok := res.Edges[seg.ID]
		if !ok {
			continue
		}
		vars := map[string]interface{}{
			"id":              seg.ID,
			"conductor":       seg.Conductor,
			"length_m":        seg.LengthM,
			"current_a":       er.CurrentA,
			"loading_percent": er.LoadingPercent,
			"loss_kw":         er.LossKW,
			"drop_kv":         er.DropKV,
			"forward":         er.Forward,
		}
		out = append(out, e.matchScope(ScopeEdge, seg.ID, vars)...)
	}

	return out
}

func (e *Engine) matchScope(scope, subject string, vars map[string]interface{}) []Violation {
	var out []Violation
	for _, cr := range e.rules {
		if cr.rule.Scope != scope {
			continue
		}
		res, _, err := cr.prg.Eval(vars)
		if err != nil {
			slog.Error("rule evaluation failed", "rule_id", cr.rule.ID, "subject", subject, "error", err)
			continue
		}
		if match, ok := res.Value().(bool); ok && match {
			msg := cr.rule.Message
			if msg == "" {
				msg = fmt.Sprintf("condition %q matched", cr.rule.Condition)
			}
			out = append(out, Violation{
				RuleID:   cr.rule.ID,
				Severity: cr.rule.Severity,
				Subject:  subject,
				Message:  msg,
			})
		}
	}
	return out
}

// DefaultRules returns the built-in planning limits: statutory voltage
// bands and thermal loading bands.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID: "undervoltage-warn", Scope: ScopeNode, Severity: SeverityWarn,
			Condition: "pu < 0.95 && pu >= 0.90",
			Message:   "voltage below 0.95 pu planning limit",
		},
		{
			ID: "undervoltage-critical", Scope: ScopeNode, Severity: SeverityCritical,
			Condition: "pu < 0.90",
			Message:   "voltage below 0.90 pu statutory limit",
		},
		{
			ID: "overload-warn", Scope: ScopeEdge, Severity: SeverityWarn,
			Condition: "loading_percent > 80.0 && loading_percent <= 100.0",
			Message:   "segment above 80% of thermal rating",
		},
		{
			ID: "overload-critical", Scope: ScopeEdge, Severity: SeverityCritical,
			Condition: "loading_percent > 100.0",
			Message:   "segment above thermal rating",
		},
	}
}

// LoadRules reads extra rules from a YAML file.
func LoadRules(path string) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing rules %s: %w", path, err)
	}
	return doc.Rules, nil
}

// HasCritical reports whether any violation carries critical severity.
func HasCritical(violations []Violation) bool {
	for _, v := range violations {
		if v.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
