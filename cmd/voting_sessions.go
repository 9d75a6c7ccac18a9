package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var votingSessionsCmd = &cobra.Command{
	Use:   "voting-sessions",
	Short: "Fetch the voting-sessions CSV report from the voting service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "voting-sessions")
		host, err := votingHost(db)
		if err != nil {
			return err
		}
		if host == "" {
			return fmt.Errorf("no voting service registered")
		}
		r := newRemote(cfg)
		res, err := r.SSH(context.Background(), host, "ivxv", []string{"ivxv-voting-sessions"}, nil, true, false)
		if err != nil {
			return err
		}
		if res.Exit != 0 {
			return fmt.Errorf("voting-sessions: %s", res.Stderr)
		}
		fmt.Fprint(os.Stdout, res.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(votingSessionsCmd)
}
