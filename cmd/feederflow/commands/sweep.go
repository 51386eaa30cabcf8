package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/engine"
	"github.com/voltspan/feederflow/pkg/netio"
)

var (
	sweepScales  []float64
	sweepFrom    float64
	sweepTo      float64
	sweepStep    float64
	sweepWorkers int
	sweepFormat  string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep [network file]",
	Short: "Re-solve across load growth scenarios",
	Long: `Scales every load by a series of factors and solves each scenario on
the worker pool. Scales come from --scale, from --from/--to/--step, or
from the config file, in that priority order.

Example:
  feederflow sweep grid.yaml
  feederflow sweep grid.yaml --from 0.5 --to 2.0 --step 0.25
  feederflow sweep grid.yaml --scale 1.0 --scale 1.5 --scale 2.0`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		net, err := netio.Load(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if config.SourceKV > 0 {
			net.SourceKV = config.SourceKV
		}

		scales := sweepScales
		if cmd.Flags().Changed("from") || cmd.Flags().Changed("to") || cmd.Flags().Changed("step") {
			scales = engine.ExpandScales(sweepFrom, sweepTo, sweepStep)
			if len(scales) == 0 {
				fmt.Println("Error: --from/--to/--step describe an empty range")
				os.Exit(1)
			}
		}
		if len(scales) == 0 {
			scales = fileCfg.Sweep.Scales
		}

		if sweepWorkers > 0 {
			config.MaxConcurrency = sweepWorkers
		} else if config.MaxConcurrency == 0 {
			config.MaxConcurrency = fileCfg.Sweep.Workers
		}
		config.Headless = true

		eng, err := newEngine(cmd.Context())
		if err != nil {
			fmt.Printf("Error starting engine: %v\n", err)
			os.Exit(1)
		}

		points, err := eng.Sweep(cmd.Context(), net, scales)
		if err != nil {
			fmt.Printf("Error running sweep: %v\n", err)
			os.Exit(1)
		}

		if sweepFormat == "json" {
			data, _ := json.MarshalIndent(points, "", "  ")
			fmt.Println(string(data))
			return
		}
		printSweepTable(net.Name, points)
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&sweepScales, "scale", nil, "Load scale factor (repeatable)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.5, "Range start")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 1.5, "Range end (inclusive)")
	sweepCmd.Flags().Float64Var(&sweepStep, "step", 0.25, "Range step")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Concurrent scenario solves (default: config file)")
	sweepCmd.Flags().StringVar(&sweepFormat, "format", "table", "Output format: table or json")
}

func printSweepTable(name string, points []engine.ScalePoint) {
	fmt.Printf("\nSWEEP %s (%d scenarios)\n\n", name, len(points))
	fmt.Printf("%7s %12s %10s %9s %-14s %7s %5s %5s\n",
		"SCALE", "LOAD kVA", "LOSS kW", "MIN PU", "AT", "EFF %", "VIOL", "CRIT")
	for _, p := range points {
		if p.Err != "" {
			fmt.Printf("%7.2f unsolvable: %s\n", p.Scale, p.Err)
			continue
		}
		fmt.Printf("%7.2f %12.1f %10.4f %9.5f %-14s %7.2f %5d %5d\n",
			p.Scale, p.TotalLoadKVA, p.TotalLossKW, p.MinPerUnit, p.MinPerUnitNode,
			p.EfficiencyPercent, p.Violations, p.Critical)
	}
}
