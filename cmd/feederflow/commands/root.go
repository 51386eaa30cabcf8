package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	internalconfig "github.com/voltspan/feederflow/pkg/config"
	"github.com/voltspan/feederflow/pkg/engine"
	"github.com/voltspan/feederflow/pkg/model"
	"github.com/voltspan/feederflow/pkg/policy"
	"github.com/voltspan/feederflow/pkg/report"
	"github.com/voltspan/feederflow/pkg/tui"
	"github.com/voltspan/feederflow/pkg/version"
)

var (
	cfgFile string
	config  engine.Config
	fileCfg internalconfig.Config
)

var rootCmd = &cobra.Command{
	Use:   "feederflow [network file]",
	Short: "Radial Feeder Analysis Platform",
	Long: `FeederFlow - Distribution Feeder Analysis Platform

Solve. Inspect. Uprate.`,
	Version: version.Current,
	Args:    cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 {
			cmd.Help()
			return
		}
		runInteractive(cmd, args[0])
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent Flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default ~/.feederflow.yaml)")
	rootCmd.PersistentFlags().StringVar(&config.CatalogPath, "catalog", "", "Conductor catalog YAML (default: built-in ACSR table)")
	rootCmd.PersistentFlags().StringVar(&config.RulesFile, "rules", "", "Policy rules YAML layered over the built-ins")
	rootCmd.PersistentFlags().Float64Var(&config.SourceKV, "source-kv", 0, "Override the source bus voltage (kV)")
	rootCmd.PersistentFlags().StringVar(&config.SlackWebhook, "slack-webhook", "", "Slack Webhook URL for study reports")
	rootCmd.PersistentFlags().IntVar(&config.MaxConcurrency, "max-workers", 0, "Limit sweep concurrency (default: auto)")
	rootCmd.PersistentFlags().BoolVarP(&config.Verbose, "verbose", "v", false, "Log every validation finding")
	rootCmd.PersistentFlags().BoolVar(&config.JSONLogs, "json-logs", false, "Emit logs as JSON lines")

	// Hidden Flags
	rootCmd.PersistentFlags().BoolVar(&config.SkipTelemetry, "no-telemetry", false, "Disable OpenTelemetry traces")
	rootCmd.PersistentFlags().MarkHidden("no-telemetry")

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderStudioHelp(cmd)
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".feederflow.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix("FEEDERFLOW")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.ReadInConfig()

	fileCfg = internalconfig.Default()
	if err := viper.Unmarshal(&fileCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: unreadable config file: %v\n", err)
	}
	applyFileConfig()
}

// applyFileConfig folds the config file underneath the flags: a flag
// the user set always wins over the file.
func applyFileConfig() {
	if config.CatalogPath == "" {
		config.CatalogPath = fileCfg.CatalogPath
	}
	if config.RulesFile == "" {
		config.RulesFile = fileCfg.RulesPath
	}
	if config.SlackWebhook == "" {
		config.SlackWebhook = fileCfg.Notify.SlackWebhook
	}
	config.Limits = fileCfg.Limits
	config.Tariff = fileCfg.Tariff
	config.HistoryURL = historyURL(fileCfg.History)
}

// historyURL flattens the history config block into the single URL
// form the engine understands.
func historyURL(h internalconfig.HistoryConfig) string {
	switch h.Backend {
	case "s3":
		if h.Bucket == "" {
			return ""
		}
		u := "s3://" + h.Bucket
		if h.Prefix != "" {
			u += "/" + h.Prefix
		}
		return u
	case "postgres":
		return h.DSN
	default:
		return h.Path
	}
}

// newEngine builds the runtime engine from the merged configuration.
// Headless commands log to stderr so stdout stays machine readable;
// the interactive path installs its own logger before calling.
func newEngine(ctx context.Context) (*engine.Engine, error) {
	if config.Logger == nil {
		config.Logger = engine.NewLogger(os.Stderr, config.JSONLogs, config.Verbose)
	}
	return engine.New(ctx,
		engine.WithConfig(config),
		engine.WithConcurrency(config.MaxConcurrency),
	)
}

// loadCatalog resolves the conductor table for commands that skip the
// full engine.
func loadCatalog() (*model.Catalog, error) {
	if config.CatalogPath == "" {
		return model.DefaultCatalog(), nil
	}
	return model.LoadCatalog(config.CatalogPath)
}

// loadRules compiles the policy set: built-ins first, then the user
// file on top.
func loadRules() (*policy.Engine, error) {
	rules, err := policy.NewEngine()
	if err != nil {
		return nil, err
	}
	if err := rules.Compile(policy.DefaultRules()); err != nil {
		return nil, err
	}
	if config.RulesFile != "" {
		extra, err := policy.LoadRules(config.RulesFile)
		if err != nil {
			return nil, err
		}
		if err := rules.Compile(extra); err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// runInteractive solves the file once and opens the study browser.
func runInteractive(cmd *cobra.Command, path string) {
	config.NetworkPath = path
	config.Headless = false

	// The TUI owns stdout; route logs away from it.
	var logDst io.Writer = io.Discard
	if config.Verbose {
		logDst = os.Stderr
	}
	config.Logger = engine.NewLogger(logDst, config.JSONLogs, config.Verbose)

	eng, err := newEngine(cmd.Context())
	if err != nil {
		fmt.Printf("Error starting engine: %v\n", err)
		os.Exit(1)
	}

	study, err := eng.Run(cmd.Context())
	if err != nil && (study == nil || study.Network == nil) {
		fmt.Printf("Error running study: %v\n", err)
		os.Exit(1)
	}
	if err != nil && !errors.Is(err, engine.ErrCriticalViolations) {
		// Unsolvable feeder: open the browser anyway so the topology
		// findings stay inspectable.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	browser := tui.NewModel(study.Network, eng.Catalog, study.Report)
	p := tea.NewProgram(browser, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v\n", err)
		os.Exit(1)
	}

	// Render Exit Summary (Cleanly after TUI exit)
	fmt.Println(report.RenderSummary(study.Report))
}

func renderStudioHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("FEEDERFLOW %s", version.Current)))
	fmt.Println("Load-flow studies for radial distribution feeders.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	fmt.Println(titleStyle.Render("COMMANDS"))
	for _, c := range cmd.Commands() {
		if c.IsAvailableCommand() {
			fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
		}
	}
	fmt.Println("")

	fmt.Println(titleStyle.Render("EXAMPLES"))
	fmt.Println("  feederflow grid.yaml                  # Interactive Mode (TUI)")
	fmt.Println("  feederflow solve grid.yaml --strict   # CI/CD Mode (No TUI)")
	fmt.Println("  feederflow sweep grid.yaml --from 0.5 --to 2.0 --step 0.25")
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	})
	fmt.Println("")
}
