// Package engine orchestrates full feeder studies. A study is one pass
// of load, validate, solve, policy check, ledger append, artifacts and
// notification; the solver itself stays pure and every side effect
// lives here.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	internalconfig "github.com/voltspan/feederflow/pkg/config"
	"github.com/voltspan/feederflow/pkg/history"
	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/notifier"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/swarm"
	"github.com/voltspan/feederflow/pkg/telemetry"
	"github.com/voltspan/feederflow/pkg/version"
)

// ErrCriticalViolations indicates the study completed but policy found
// critical violations and strict mode is on.
var ErrCriticalViolations = errors.New("study completed with critical violations")

// Config holds engine settings.
type Config struct {
	NetworkPath string
	SourceKV    float64 // overrides the file's source voltage when positive
	CatalogPath string
	RulesFile   string

	SlackWebhook string
	SlackChannel string

	Headless   bool
	Verbose    bool
	JSONLogs   bool
	StrictMode bool // forces a non-zero exit on critical violations

	MaxConcurrency int

	OutputDir  string // artifact directory, or "s3://bucket/prefix"
	HistoryURL string // "", a file path, "s3://bucket/key", or a postgres DSN

	Limits internalconfig.LimitsConfig
	Tariff internalconfig.TariffConfig

	// Telemetry config.
	OtelEndpoint  string
	SkipTelemetry bool // set true when embedding in an app that already has OTEL

	// Dependencies.
	Logger *slog.Logger
}

// Engine is the runtime core.
type Engine struct {
	// Core components.
	Catalog *model.Catalog
	Rules   *policy.Engine
	Swarm   *swarm.Engine
	Logger  *slog.Logger
	Tracer  trace.Tracer

	// Immutable config.
	config    Config
	outputDir string
	s3Target  string // "s3://bucket/prefix" or empty

	// External dependencies.
	History  *history.Client
	Notifier *notifier.SlackClient
}

// Option defines a functional configuration override.
type Option func(*Engine)

// New initializes the Engine.
func New(ctx context.Context, opts ...Option) (*Engine, error) {
	// Safe defaults.
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: redactSensitiveData,
	})
	e := &Engine{
		Catalog:   model.DefaultCatalog(),
		Swarm:     swarm.NewEngine(0),
		Logger:    slog.New(handler),
		Tracer:    telemetry.Tracer("feederflow/engine"),
		outputDir: "feederflow-out",
	}

	// Apply options.
	for _, opt := range opts {
		opt(e)
	}

	slog.SetDefault(e.Logger)

	// Initialize telemetry.
	if !e.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, e.config.OtelEndpoint)
		if err != nil {
			e.Logger.Warn("Telemetry failed", "error", err)
		} else {
			_ = shutdown
		}
	}

	// Load the conductor catalog.
	if e.config.CatalogPath != "" {
		cat, err := model.LoadCatalog(e.config.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		e.Catalog = cat
	}

	// Compile policy rules: built-ins first, then the user file on top.
	if e.Rules == nil {
		rules, err := policy.NewEngine()
		if err != nil {
			return nil, fmt.Errorf("policy init: %w", err)
		}
		if err := rules.Compile(policy.DefaultRules()); err != nil {
			return nil, fmt.Errorf("compiling built-in rules: %w", err)
		}
		if e.config.RulesFile != "" {
			extra, err := policy.LoadRules(e.config.RulesFile)
			if err != nil {
				return nil, err
			}
			if err := rules.Compile(extra); err != nil {
				return nil, err
			}
		}
		e.Rules = rules
	}

	// Initialize history.
	backend, err := openHistoryBackend(ctx, e.config.HistoryURL)
	if err != nil {
		e.Logger.Warn("History backend unavailable, falling back to local ledger", "error", err)
		backend = nil
	}
	e.History = history.NewClient(backend)

	// Slack notifications are opt-in by webhook.
	if e.config.SlackWebhook != "" {
		e.Notifier = notifier.NewSlackClient(e.config.SlackWebhook, e.config.SlackChannel)
	}

	return e, nil
}

// openHistoryBackend picks a ledger backend from the URL scheme. Empty
// means the client's default local JSONL file.
func openHistoryBackend(ctx context.Context, url string) (history.Backend, error) {
	switch {
	case url == "":
		return nil, nil
	case strings.HasPrefix(url, "s3://"):
		return history.NewS3Backend(ctx, url)
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return history.NewPostgresBackend(ctx, url)
	default:
		return history.NewFileBackend(url), nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.Logger = l
	}
}

// WithCatalog sets the conductor catalog, overriding both the built-in
// table and any CatalogPath in the config.
func WithCatalog(cat *model.Catalog) Option {
	return func(e *Engine) {
		if cat != nil {
			e.Catalog = cat
			e.config.CatalogPath = ""
		}
	}
}

// WithConcurrency sets the sweep worker target.
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.config.MaxConcurrency = n
			e.Swarm = swarm.NewEngine(n)
		}
	}
}

// WithConfig sets raw config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.config = cfg
		if cfg.OutputDir != "" {
			if strings.HasPrefix(cfg.OutputDir, "s3://") {
				e.s3Target = cfg.OutputDir
				e.outputDir = "feederflow-out" // generate locally first
			} else {
				e.outputDir = cfg.OutputDir
			}
		}
		if cfg.Logger != nil {
			e.Logger = cfg.Logger
		}
		if cfg.MaxConcurrency > 0 {
			e.Swarm = swarm.NewEngine(cfg.MaxConcurrency)
		}
	}
}

// Run executes the full study pipeline over the configured network
// file. A fatal solve still returns a Study carrying the empty display
// defaults alongside the error, so interactive callers can render the
// degraded state instead of crashing out.
func (e *Engine) Run(ctx context.Context) (*Study, error) {
	ctx, span := e.Tracer.Start(ctx, "Engine.Run")
	defer span.End()

	// Crash safety.
	defer e.recoverPanic(ctx)

	if !e.config.Headless && !e.config.JSONLogs {
		fmt.Printf("%s %s [%s]\n", version.AppName, version.Current, version.License)
	}

	e.Logger.Info("Starting study", "network", e.config.NetworkPath)

	study, err := runStudyPipeline(ctx, e)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return study, err
	}

	critical := 0
	for _, v := range study.Violations {
		if v.Severity == policy.SeverityCritical {
			critical++
		}
	}
	if critical > 0 {
		span.SetAttributes(attribute.Int("study.critical_violations", critical))

		if e.config.StrictMode {
			e.Logger.Error("Strict Mode: failing on critical violations", "count", critical)
			return study, ErrCriticalViolations
		}
		e.Logger.Warn("Study finished with critical violations (StrictMode=false)", "count", critical)
	}

	return study, nil
}

// recoverPanic handles failures.
func (e *Engine) recoverPanic(ctx context.Context) {
	if r := recover(); r != nil {
		_, span := e.Tracer.Start(ctx, "CriticalPanic")

		stack := debug.Stack()

		span.RecordError(fmt.Errorf("%v", r), trace.WithStackTrace(true))
		span.SetStatus(codes.Error, "CRITICAL FAILURE")
		span.SetAttributes(
			attribute.String("crash.stack", string(stack)),
			attribute.String("crash.reason", fmt.Sprintf("%v", r)),
		)
		span.End()

		e.Logger.Error("CRITICAL FAILURE", "error", r, "stack", string(stack))
	}
}

// NewLogger builds the standard study logger: text for humans, JSON
// for pipelines, sensitive keys redacted either way.
func NewLogger(w io.Writer, jsonFormat, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactSensitiveData,
	}
	if jsonFormat {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// redactSensitiveData scrubs sensitive keys from logs. Webhook URLs
// and DSNs embed credentials, so they never reach the log stream.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"password": true, "token": true, "secret": true, "api_key": true,
		"auth_token": true, "access_key": true, "private_key": true,
		"credential": true, "webhook": true, "dsn": true, "connection_string": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
