package config

import "time"

// Config is the full engine configuration as loaded from the config
// file and environment. Zero values fall back to the Default*
// constructors, so a missing file is never an error.
type Config struct {
	// CatalogPath points at a conductor catalog YAML. Empty means the
	// built-in ACSR table.
	CatalogPath string `mapstructure:"catalog_path"`
	// RulesPath points at a policy rules YAML. Empty means the built-in
	// voltage and loading rules.
	RulesPath string `mapstructure:"rules_path"`

	Limits  LimitsConfig  `mapstructure:"limits"`
	Tariff  TariffConfig  `mapstructure:"tariff"`
	History HistoryConfig `mapstructure:"history"`
	Sweep   SweepConfig   `mapstructure:"sweep"`
	Watch   WatchConfig   `mapstructure:"watch"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

// HistoryConfig selects where study snapshots get appended.
type HistoryConfig struct {
	// Backend is one of "file", "s3" or "postgres".
	Backend string `mapstructure:"backend"`
	// Path is the JSONL ledger location for the file backend.
	Path string `mapstructure:"path"`
	// Bucket and Prefix locate the ledger for the s3 backend.
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
	// DSN is the connection string for the postgres backend.
	DSN string `mapstructure:"dsn"`
}

// SweepConfig drives the load-growth scenario runner.
type SweepConfig struct {
	// Scales are the demand multipliers applied per scenario.
	Scales []float64 `mapstructure:"scales"`
	// Workers caps concurrent scenario solves.
	Workers int `mapstructure:"workers"`
}

// WatchConfig tunes the file watcher behind solve --watch.
type WatchConfig struct {
	// Debounce coalesces editor save bursts into one re-solve.
	Debounce time.Duration `mapstructure:"debounce"`
}

// NotifyConfig wires violation alerts to a webhook.
type NotifyConfig struct {
	// SlackWebhook receives a summary after each study. Empty disables it.
	SlackWebhook string `mapstructure:"slack_webhook"`
	// MinSeverity gates which violations trigger a notification.
	MinSeverity string `mapstructure:"min_severity"`
}

// Default returns a configuration with sensible default values.
func Default() Config {
	return Config{
		Limits: DefaultLimitsConfig(),
		Tariff: DefaultTariffConfig(),
		History: HistoryConfig{
			Backend: "file",
			Path:    DefaultHistoryFile,
		},
		Sweep: SweepConfig{
			Scales:  []float64{0.5, 0.75, 1.0, 1.25, 1.5},
			Workers: 4,
		},
		Watch: WatchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Notify: NotifyConfig{
			MinSeverity: "critical",
		},
	}
}
