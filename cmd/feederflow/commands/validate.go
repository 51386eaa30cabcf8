package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/netio"
	"github.com/voltspan/feederflow/pkg/solver"
)

var validateCmd = &cobra.Command{
	Use:   "validate [network file]",
	Short: "Check a network file without solving it",
	Long: `Parses the file and reports structural findings: duplicate IDs,
dangling segment endpoints, unknown conductors, unreachable buses.

Exits non-zero when any finding is an error.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		net, err := netio.Load(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		cat, err := loadCatalog()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		issues := solver.Validate(net.Nodes, net.Edges, cat)
		for _, issue := range issues {
			fmt.Println(issue.String())
		}

		if solver.HasErrors(issues) {
			fmt.Printf("\n%s is not solvable.\n", net.Name)
			os.Exit(1)
		}
		if len(issues) > 0 {
			fmt.Printf("\n%s is solvable with %d warning(s).\n", net.Name, len(issues))
			return
		}
		fmt.Printf("%s is valid: %d buses, %d segments.\n", net.Name, len(net.Nodes), len(net.Edges))
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
