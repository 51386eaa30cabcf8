package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/voltspan/feederflow/pkg/history"
	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/netio"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/report"
	"github.com/voltspan/feederflow/pkg/solver"
)

// Study bundles everything one pipeline run produces. Result is never
// nil: a fatal solve leaves the empty display defaults in place so
// renderers can show the degraded state.
type Study struct {
	Network    *model.Network
	Issues     []solver.Issue
	Result     *solver.Result
	Violations []policy.Violation
	Report     report.Data
	Drift      *history.DriftResult
}

func runStudyPipeline(ctx context.Context, e *Engine) (*Study, error) {
	study := &Study{Result: solver.Empty()}

	// Phase 1: load the network file.
	_, loadSpan := e.Tracer.Start(ctx, "pipeline.load")
	net, err := netio.Load(e.config.NetworkPath)
	if err != nil {
		loadSpan.SetStatus(codes.Error, err.Error())
		loadSpan.End()
		return study, err
	}
	if e.config.SourceKV > 0 {
		net.SourceKV = e.config.SourceKV
	}
	study.Network = net
	loadSpan.SetAttributes(
		attribute.String("network.name", net.Name),
		attribute.Int("network.nodes", len(net.Nodes)),
		attribute.Int("network.edges", len(net.Edges)),
	)
	loadSpan.End()

	// Phase 2: validate. Findings are advisory here; fatal conditions
	// resurface from the solve itself.
	_, valSpan := e.Tracer.Start(ctx, "pipeline.validate")
	study.Issues = solver.Validate(net.Nodes, net.Edges, e.Catalog)
	for _, issue := range study.Issues {
		if issue.Severity == solver.SeverityError {
			e.Logger.Error("Validation finding", "code", issue.Code, "subject", issue.Subject, "detail", issue.Message)
		} else if e.config.Verbose {
			e.Logger.Warn("Validation finding", "code", issue.Code, "subject", issue.Subject, "detail", issue.Message)
		}
	}
	valSpan.SetAttributes(attribute.Int("validate.findings", len(study.Issues)))
	valSpan.End()

	// Phase 3: solve.
	_, solveSpan := e.Tracer.Start(ctx, "pipeline.solve")
	res, err := solver.SolveNetwork(net, e.Catalog)
	if err != nil {
		solveSpan.SetStatus(codes.Error, err.Error())
		solveSpan.End()
		study.Report = e.buildReport(net, study.Result, nil)
		return study, fmt.Errorf("solving %s: %w", net.Name, err)
	}
	study.Result = res
	solveSpan.SetAttributes(
		attribute.Float64("solve.min_per_unit", res.System.MinPerUnit),
		attribute.Float64("solve.loss_kw", res.System.TotalLossKW),
	)
	solveSpan.End()

	// Phase 4: policy check.
	_, polSpan := e.Tracer.Start(ctx, "pipeline.policy")
	study.Violations = e.Rules.Check(net.Nodes, net.Edges, res)
	polSpan.SetAttributes(attribute.Int("policy.violations", len(study.Violations)))
	polSpan.End()

	// Render rows once; every surface downstream reads this snapshot.
	study.Report = e.buildReport(net, res, study.Violations)

	// Phase 5: ledger append and drift analysis.
	_, histSpan := e.Tracer.Start(ctx, "pipeline.history")
	study.Drift = e.performDriftAnalysis(ctx, net, res, study.Violations)
	histSpan.End()

	// Phase 6: artifact bundle.
	if e.config.OutputDir != "" {
		_, artSpan := e.Tracer.Start(ctx, "pipeline.artifacts")
		if err := e.WriteArtifacts(ctx, study.Report); err != nil {
			artSpan.SetStatus(codes.Error, err.Error())
			e.Logger.Error("Artifact generation failed", "dir", e.outputDir, "error", err)
		}
		artSpan.End()
	}

	// Phase 7: notification.
	if e.Notifier != nil && e.config.Headless {
		e.Logger.Info("Transmitting study report to Slack")
		if err := e.Notifier.SendStudyReport(study.Report); err != nil {
			e.Logger.Warn("Failed to send Slack report", "error", err)
		} else {
			e.Logger.Info("Slack report delivered")
		}
	}

	return study, nil
}

func (e *Engine) buildReport(net *model.Network, res *solver.Result, violations []policy.Violation) report.Data {
	d := report.Build(net, res, violations)
	d.GeneratedAt = time.Now().UTC()
	d.TariffPerKWh = decimal.NewFromFloat(e.config.Tariff.PerKWh)
	return d
}

// performDriftAnalysis appends this solve to the ledger and examines
// the recent window for trends worth alerting on.
func (e *Engine) performDriftAnalysis(ctx context.Context, net *model.Network, res *solver.Result, violations []policy.Violation) *history.DriftResult {
	// Snapshot state.
	s := history.FromResult(net, res, 1.0)
	for _, v := range violations {
		s.ViolationCount++
		if v.Severity == policy.SeverityCritical {
			s.CriticalCount++
		}
	}

	// Persist.
	if err := e.History.Append(ctx, s); err != nil {
		e.Logger.Warn("History append failed", "error", err)
	}

	// Analyze the recent window.
	window, err := e.History.LoadWindow(ctx, 10)
	if err != nil || len(window) < 2 {
		return nil
	}

	drift := history.Analyze(window, e.config.Limits.CriticalPerUnit)

	if len(drift.Alerts) > 0 {
		for _, alert := range drift.Alerts {
			e.Logger.Warn("Feeder drift", "alert", alert)
		}
		e.Logger.Warn("Drift velocity",
			"loss_kw_per_hour", drift.LossVelocity,
			"pu_per_hour", drift.VoltageVelocity)

		if e.Notifier != nil {
			if err := e.Notifier.SendDriftAlert(drift); err != nil {
				e.Logger.Warn("Failed to send drift alert", "error", err)
			}
		}
	}

	return &drift
}
