package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var voterstatsDetail bool

var voterstatsCmd = &cobra.Command{
	Use:   "voterstats",
	Short: "Fetch voter statistics from the log monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "voterstats")
		host, err := logMonitorHost(db)
		if err != nil {
			return err
		}
		if host == "" {
			return fmt.Errorf("no log monitor registered")
		}
		r := newRemote(cfg)
		argv := []string{"ivxv-voterstats"}
		if voterstatsDetail {
			argv = append(argv, "--detail")
		} else {
			argv = append(argv, "--raw")
		}
		res, err := r.SSH(context.Background(), host, "ivxv", argv, nil, true, false)
		if err != nil {
			return err
		}
		if res.Exit != 0 {
			return fmt.Errorf("voterstats: %s", res.Stderr)
		}
		fmt.Fprint(os.Stdout, res.Stdout)
		return nil
	},
}

func init() {
	voterstatsCmd.Flags().BoolVar(&voterstatsDetail, "detail", false, "fetch the per-station detail breakdown instead of the raw district counts")
	rootCmd.AddCommand(voterstatsCmd)
}
