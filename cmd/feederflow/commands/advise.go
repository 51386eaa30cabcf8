package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/advisor"
	"github.com/voltspan/feederflow/pkg/netio"
)

var (
	adviseOut    string
	adviseFormat string
)

var adviseCmd = &cobra.Command{
	Use:   "advise [network file]",
	Short: "Propose conductor upgrades for violating segments",
	Long: `Solves the feeder, picks the smallest catalog conductor that clears
each violating segment, and verifies the plan with a second solve.

Example:
  feederflow advise grid.yaml
  feederflow advise grid.yaml --out grid-upgraded.yaml`,
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

		cat, err := loadCatalog()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		rules, err := loadRules()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		adv := advisor.New(cat, rules, config.Limits, decimal.NewFromFloat(config.Tariff.PerKWh))
		plan, err := adv.Advise(net)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		if adviseFormat == "json" {
			data, _ := json.MarshalIndent(plan, "", "  ")
			fmt.Println(string(data))
		} else {
			printPlan(plan)
		}

		if adviseOut != "" && plan.Upgraded != nil {
			if err := netio.Save(adviseOut, plan.Upgraded); err != nil {
				fmt.Printf("Error writing upgraded network: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("\n[SUCCESS] Upgraded network written: %s\n", adviseOut)
		}
	},
}

func init() {
	rootCmd.AddCommand(adviseCmd)
	adviseCmd.Flags().StringVar(&adviseOut, "out", "", "Write the upgraded network to this file")
	adviseCmd.Flags().StringVar(&adviseFormat, "format", "table", "Output format: table or json")
}

func printPlan(plan *advisor.Plan) {
	if len(plan.Suggestions) == 0 {
		fmt.Println("\n[Success] No upgrades needed. The feeder is within limits.")
		return
	}

	fmt.Printf("\n[ UPRATING PLAN ]\nFound %d segment(s) worth rewiring.\n", len(plan.Suggestions))
	fmt.Println("\n-------------------------------------------------------------")
	for _, s := range plan.Suggestions {
		fmt.Printf("# %s (%s > %s): %s\n", s.EdgeID, s.From, s.To, s.Reason)
		fmt.Printf("  %s -> %s  (rating %.0f A -> %.0f A, carrying %.1f A)\n",
			s.FromConductor, s.ToConductor, s.OldAmpacityA, s.NewAmpacityA, s.CurrentA)
		fmt.Printf("  loading %.1f%% -> %.1f%%\n\n", s.OldLoadingPercent, s.NewLoadingPercent)
	}
	fmt.Println("-------------------------------------------------------------")
	fmt.Printf("Lowest voltage:  %.5f pu -> %.5f pu\n", plan.MinPerUnitBefore, plan.MinPerUnitAfter)
	fmt.Printf("Series loss:     %.4f kW -> %.4f kW\n", plan.LossKWBefore, plan.LossKWAfter)
	fmt.Printf("Violations:      %d -> %d\n", plan.ViolationsBefore, plan.ViolationsAfter)
	if plan.AnnualSaving.IsPositive() {
		fmt.Printf("Annual saving:   %s/yr at the configured tariff\n", plan.AnnualSaving.StringFixed(2))
	}
	fmt.Println("-------------------------------------------------------------")
}
