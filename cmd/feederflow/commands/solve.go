package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/engine"
	"github.com/voltspan/feederflow/pkg/report"
)

var (
	solveFormat string
	solveWatch  bool
)

var solveCmd = &cobra.Command{
	Use:   "solve [network file]",
	Short: "Run one headless study (CI/CD mode)",
	Long: `Solves the feeder once and prints the study to stdout.

With --watch the file is re-solved after every save until interrupted.

Example:
  feederflow solve grid.yaml
  feederflow solve grid.yaml --format json --strict`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config.NetworkPath = args[0]
		config.Headless = true

		eng, err := newEngine(cmd.Context())
		if err != nil {
			fmt.Printf("Error starting engine: %v\n", err)
			os.Exit(1)
		}

		if solveWatch {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printStudy(eng.Run(ctx))
			err := eng.Watch(ctx, fileCfg.Watch.Debounce, func(study *engine.Study, err error) {
				printStudy(study, err)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				fmt.Printf("Error watching: %v\n", err)
				os.Exit(1)
			}
			return
		}

		study, err := eng.Run(cmd.Context())
		printStudy(study, err)
		if err != nil {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(solveCmd)
	solveCmd.Flags().StringVar(&solveFormat, "format", "table", "Output format: table, json or csv")
	solveCmd.Flags().BoolVar(&config.StrictMode, "strict", false, "Exit non-zero on critical violations")
	solveCmd.Flags().BoolVar(&solveWatch, "watch", false, "Re-solve on every file save")
}

// printStudy renders one study outcome in the selected format. A study
// that never loaded has nothing to show; a study that loaded but did
// not solve still prints its rows in the skipped state.
func printStudy(study *engine.Study, err error) {
	if err != nil && (study == nil || study.Network == nil) {
		fmt.Fprintf(os.Stderr, "Error running study: %v\n", err)
		return
	}

	switch solveFormat {
	case "json":
		if werr := study.Report.WriteJSON(os.Stdout); werr != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", werr)
		}
	case "csv":
		_ = study.Report.WriteNodesCSV(os.Stdout)
		fmt.Println()
		_ = study.Report.WriteEdgesCSV(os.Stdout)
	default:
		fmt.Println(report.RenderSummary(study.Report))
		fmt.Println(report.RenderNodeTable(study.Report))
		fmt.Println(report.RenderEdgeTable(study.Report))
		fmt.Println(report.RenderViolations(study.Report))
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
}
