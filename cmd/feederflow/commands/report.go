package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report [network file]",
	Short: "Generate the artifact bundle (CSV, JSON, HTML)",
	Long: `Runs a full study and writes the artifact bundle.

The target is a local directory or an s3:// URL; s3 targets are
rendered locally first and uploaded afterwards.

Example:
  feederflow report grid.yaml --out ./studies
  feederflow report grid.yaml --out s3://grid-studies/plant-a`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config.NetworkPath = args[0]
		config.Headless = true
		config.OutputDir = reportOut

		eng, err := newEngine(cmd.Context())
		if err != nil {
			fmt.Printf("\n[ERROR] Report Failed (Init): %v\n", err)
			os.Exit(1)
		}
		if _, err := eng.Run(cmd.Context()); err != nil {
			fmt.Printf("\n[ERROR] Report Failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Println("\n[SUCCESS] Report Complete.")
		if strings.HasPrefix(reportOut, "s3://") {
			fmt.Printf("   Bundle uploaded to %s\n", reportOut)
			return
		}
		fmt.Printf("   CSV:  %s\n", filepath.Join(reportOut, "nodes.csv"))
		fmt.Printf("   CSV:  %s\n", filepath.Join(reportOut, "segments.csv"))
		fmt.Printf("   JSON: %s\n", filepath.Join(reportOut, "study.json"))
		fmt.Printf("   HTML: %s\n", filepath.Join(reportOut, "study.html"))
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVar(&reportOut, "out", "feederflow-out", "Output directory or s3:// URL")
}
