package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/pkg/crypto"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the ledger with a demo region, simulated node and user",
	Long: `Seed creates a demo region with one simulated edge node and a demo
user account. Simulated nodes skip the RouterOS API, so the full
provisioning flow can be exercised without real hardware.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

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

		regionCode, _ := cmd.Flags().GetString("region")
		username, _ := cmd.Flags().GetString("username")
		poolCIDR, _ := cmd.Flags().GetString("pool")

		region, err := store.GetRegionByCode(ctx, regionCode)
		if err != nil {
			if !db.IsNotFound(err) {
				fmt.Fprintf(os.Stderr, "failed to look up region: %v\n", err)
				os.Exit(1)
			}
			region, err = store.CreateRegion(ctx, db.CreateRegionParams{
				ID:       uuid.New().String(),
				Code:     regionCode,
				Name:     regionCode,
				IsActive: true,
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to create region: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("created region %s\n", region.Code)
		}

		serverKeys, err := crypto.GenerateKeyPair()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate server keys: %v\n", err)
			os.Exit(1)
		}

		node, err := store.CreateNode(ctx, db.CreateNodeParams{
			ID:              uuid.New().String(),
			RegionID:        region.ID,
			Name:            fmt.Sprintf("%s-sim-1", regionCode),
			EndpointHost:    "127.0.0.1",
			EndpointPort:    51820,
			ServerPublicKey: serverKeys.PublicKey,
			InterfaceName:   "wg-vpn",
			PoolCidr:        poolCIDR,
			AllowedIps:      "0.0.0.0/0, ::/0",
			MaxCapacity:     100,
			ApiHost:         "127.0.0.1",
			ApiPort:         8728,
			ApiUser:         "api",
			ApiPassword:     "api",
			IsSimulated:     true,
			Status:          db.NodeStatusUp,
			Priority:        1,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create node: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created simulated node %s in %s\n", node.Name, region.Code)

		user, err := store.CreateUser(ctx, db.CreateUserParams{
			ID:       uuid.New().String(),
			Username: username,
			IsActive: true,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("created user %s (%s)\n", user.Username, user.ID)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("region", "US", "region code to seed")
	seedCmd.Flags().String("username", "demo", "username for the demo account")
	seedCmd.Flags().String("pool", "10.66.10.0/24", "tunnel address pool for the simulated node")
}
