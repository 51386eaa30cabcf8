package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/history"
)

var (
	historyWindow int
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the study ledger and drift signals",
	Long: `Prints the trailing window of the study ledger plus the drift
analysis derived from it: loss velocity, acceleration and the
projected time until the worst bus crosses the voltage floor.`,
	Run: func(cmd *cobra.Command, args []string) {
		config.Headless = true

		eng, err := newEngine(cmd.Context())
		if err != nil {
			fmt.Printf("Error starting engine: %v\n", err)
			os.Exit(1)
		}

		snaps, err := eng.History.LoadWindow(cmd.Context(), historyWindow)
		if err != nil {
			fmt.Printf("Error loading ledger: %v\n", err)
			os.Exit(1)
		}
		if len(snaps) == 0 {
			fmt.Println("The ledger is empty. Run a study first.")
			return
		}

		if historyFormat == "json" {
			data, _ := json.MarshalIndent(snaps, "", "  ")
			fmt.Println(string(data))
			return
		}

		fmt.Printf("%-20s %-18s %7s %6s %12s %10s %9s %5s %5s\n",
			"TIME", "NETWORK", "KV", "SCALE", "LOAD kVA", "LOSS kW", "MIN PU", "VIOL", "CRIT")
		for _, s := range snaps {
			fmt.Printf("%-20s %-18s %7.1f %6.2f %12.1f %10.4f %9.5f %5d %5d\n",
				time.Unix(s.Timestamp, 0).Format("2006-01-02 15:04:05"),
				s.Network, s.SourceKV, s.Scale, s.TotalLoadKVA, s.TotalLossKW, s.MinPerUnit,
				s.ViolationCount, s.CriticalCount)
		}

		drift := history.Analyze(snaps, config.Limits.WarnPerUnit)
		for _, alert := range drift.Alerts {
			fmt.Println(alert)
		}
		if drift.Pattern != "" {
			fmt.Printf("\nPattern: %s | loss velocity %+.3f kW/h | projected 24h loss %.3f kW\n",
				drift.Pattern, drift.LossVelocity, drift.ProjectedLossKW24h)
		}
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyWindow, "window", 10, "Number of trailing snapshots to show")
	historyCmd.Flags().StringVar(&historyFormat, "format", "table", "Output format: table or json")
}
