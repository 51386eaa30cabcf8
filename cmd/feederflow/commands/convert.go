package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/netio"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input] [output]",
	Short: "Rewrite a network file between formats",
	Long: `Reads a network in any supported format and writes it in the format
named by the output extension. HCL is a read-only input; targets are
JSON or YAML.

Example:
  feederflow convert grid.hcl grid.yaml
  feederflow convert grid.yaml grid.json`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		net, err := netio.Load(args[0])
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if err := netio.Save(args[1], net); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("[SUCCESS] %s -> %s (%d buses, %d segments)\n",
			args[0], args[1], len(net.Nodes), len(net.Edges))
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
