package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the conductor catalog",
	Run: func(cmd *cobra.Command, args []string) {
		cat, err := loadCatalog()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		def := cat.Default()
		fmt.Printf("%-10s %-24s %10s %10s %10s\n", "ID", "NAME", "R ohm/km", "X ohm/km", "AMPACITY")
		for _, c := range cat.Entries() {
			mark := " "
			if c.ID == def.ID {
				mark = "*"
			}
			fmt.Printf("%-10s %-24s %10.4f %10.4f %8.0f A %s\n",
				c.ID, c.Name, c.ROhmPerKM, c.XOhmPerKM, c.AmpacityA, mark)
		}
		fmt.Println("\n* default conductor for segments that name none")
	},
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}
