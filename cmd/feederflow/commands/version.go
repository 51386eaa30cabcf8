package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s [%s]\n", version.AppName, version.Current, version.License)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
