package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/voltspan/feederflow/pkg/engine"
	"github.com/voltspan/feederflow/pkg/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP solve API",
	Long: `Starts the stateless HTTP API. Every request carries a full network
document, so the process holds no feeder state between calls.

Configuration comes from the environment (FEEDERFLOW_PORT,
FEEDERFLOW_API_TOKEN) with flags layered on top.

Example:
  feederflow serve
  feederflow serve --port 9000`,
	Run: func(cmd *cobra.Command, args []string) {
		srvCfg, err := server.LoadConfig()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("port") {
			srvCfg.Port = servePort
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

		logger := engine.NewLogger(os.Stdout, true, config.Verbose)
		srv := server.New(srvCfg, cat, rules, logger)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 8420, "Listen port (overrides FEEDERFLOW_PORT)")
}
