package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fleet manager daemon",
	Long: `Start the fleet manager: opens the ledger, launches the node health
sweeper and serves the control API until SIGINT or SIGTERM.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		log := logger.New(cfg.Log.Level, cfg.Log.Format)
		log.Info("starting fleetd")

		service, err := fleet.NewService(cfg, log)
		if err != nil {
			log.Error("failed to create service", "error", err)
			os.Exit(1)
		}

		if err := service.Start(ctx); err != nil {
			log.Error("failed to start service", "error", err)

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if stopErr := service.Stop(shutdownCtx); stopErr != nil {
				log.Error("failed to clean up after startup failure", "error", stopErr)
			}
			os.Exit(1)
		}

		service.WaitForShutdown()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
