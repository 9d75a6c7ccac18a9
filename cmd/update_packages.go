package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/collstate"
	"ivxv.ee/collector-admin/core/remote"
)

var updatePackagesHost string

var updatePackagesCmd = &cobra.Command{
	Use:   "update-packages",
	Short: "Push the current .deb package set to one or all fleet hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "update-packages")
		r := newRemote(cfg)

		hosts, err := targetHosts(db, updatePackagesHost)
		if err != nil {
			return err
		}

		var failed []string
		for _, host := range hosts {
			res, err := r.SCP(context.Background(), cfg.Paths.DebPkg, host+":/tmp/ivxv-deb-pkg", "ivxv", remote.Push)
			if err != nil || res.Exit != 0 {
				failed = append(failed, host)
				continue
			}
			installRes, err := r.SSH(context.Background(), host, "ivxv", []string{"ivxv-admin-sudo", "update-packages", "/tmp/ivxv-deb-pkg"}, nil, true, false)
			if err != nil || installRes.Exit != 0 {
				failed = append(failed, host)
				continue
			}
			fmt.Printf("%s: packages updated\n", host)
		}
		if len(failed) > 0 {
			return fmt.Errorf("package update failed on: %v", failed)
		}
		return nil
	},
}

func targetHosts(db interface {
	All(string) (map[string]string, error)
}, single string) ([]string, error) {
	if single != "" {
		return []string{single}, nil
	}
	rows, err := db.All("service/")
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var hosts []string
	for _, row := range collstate.ServiceRowsFromRows(rows) {
		if row.IPAddress == "" || seen[row.IPAddress] {
			continue
		}
		seen[row.IPAddress] = true
		hosts = append(hosts, row.IPAddress)
	}
	return hosts, nil
}

func init() {
	updatePackagesCmd.Flags().StringVar(&updatePackagesHost, "host", "", "limit to a single host (default: every known service host)")
	rootCmd.AddCommand(updatePackagesCmd)
}
