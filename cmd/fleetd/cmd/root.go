package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "fleetd",
	Short: "WireGuard fleet manager for MikroTik edge nodes",
	Long: `fleetd provisions per-user WireGuard peers on a fleet of MikroTik
edge nodes, keeps one active peer per user across the whole fleet and
serves the control API that hands out tunnel configs.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches /etc/mk-api-wire, $HOME/.mk-api-wire, .)")
}

// loadConfig honors the --config flag, falling back to the search paths.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.LoadWithPath(cfgFile)
	}
	return config.NewLoader().Load()
}
