package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/collstate"
)

var backupServiceID string

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Trigger an out-of-cycle backup run on the registered backup service(s)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "backup")
		r := newRemote(cfg)

		rows, err := db.All("service/")
		if err != nil {
			return err
		}

		var targets []collstate.ServiceRow
		for _, row := range collstate.ServiceRowsFromRows(rows) {
			if row.ServiceType != "backup" {
				continue
			}
			if backupServiceID != "" && row.ID != backupServiceID {
				continue
			}
			targets = append(targets, row)
		}
		if len(targets) == 0 {
			return fmt.Errorf("no matching backup service registered")
		}

		var failed []string
		for _, svc := range targets {
			res, err := r.SSH(context.Background(), svc.IPAddress, "ivxv", []string{"ivxv-admin-helper", "run-backup"}, nil, true, false)
			if err != nil || res.Exit != 0 {
				failed = append(failed, svc.ID)
				continue
			}
			fmt.Printf("%s: backup ok\n", svc.ID)
		}
		if len(failed) > 0 {
			return fmt.Errorf("backup failed on: %v", failed)
		}
		return nil
	},
}

func init() {
	backupCmd.Flags().StringVar(&backupServiceID, "service", "", "limit to a single backup service ID (default: every registered backup service)")
	rootCmd.AddCommand(backupCmd)
}
