package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the ledger schema",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}

		store, err := db.NewStore(&db.Config{
			Path:            cfg.DB.Path,
			MaxOpenConns:    cfg.DB.MaxOpenConns,
			MaxIdleConns:    cfg.DB.MaxIdleConns,
			ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open ledger: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		fmt.Printf("ledger schema is up to date at %s\n", cfg.DB.Path)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
