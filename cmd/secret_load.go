package cmd

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/collstate"
	"ivxv.ee/collector-admin/core/svcdriver"
)

var (
	secretLoadService string
	secretLoadKind    string
	secretLoadFile    string
)

var secretLoadCmd = &cobra.Command{
	Use:   "secret-load",
	Short: "Push a TLS/MID/TSP-reg secret to one service and restart it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "secret-load")
		events := openEvents(cfg)
		driver := newDriver(cfg, db, events)

		rows, err := db.All("service/" + secretLoadService + "/")
		if err != nil {
			return err
		}
		services := collstate.ServiceRowsFromRows(rows)
		if len(services) == 0 {
			return fmt.Errorf("unknown service %q", secretLoadService)
		}
		row := services[0]
		svc := svcdriver.Service{ID: row.ID, Type: row.ServiceType, Host: row.IPAddress, Address: row.IPAddress}

		b, err := os.ReadFile(secretLoadFile)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(b)
		sha := hex.EncodeToString(sum[:])

		if err := driver.LoadSecret(context.Background(), svc, secretLoadKind, secretLoadFile, sha); err != nil {
			return err
		}
		fmt.Printf("loaded %s secret for %s (sha256 %s)\n", secretLoadKind, svc.ID, sha)
		return nil
	},
}

func init() {
	secretLoadCmd.Flags().StringVar(&secretLoadService, "service", "", "service id")
	secretLoadCmd.Flags().StringVar(&secretLoadKind, "kind", "", "secret kind (tls-key|tls-cert|mid-token-key|tspreg-key)")
	secretLoadCmd.Flags().StringVar(&secretLoadFile, "file", "", "local path to the secret file")
	secretLoadCmd.MarkFlagRequired("service")
	secretLoadCmd.MarkFlagRequired("kind")
	secretLoadCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(secretLoadCmd)
}
