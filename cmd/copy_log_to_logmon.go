package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/agent"
)

var (
	copyLogHost       string
	copyLogFile       string
	copyLogMonitorHost string
)

var copyLogToLogmonCmd = &cobra.Command{
	Use:   "copy-log-to-logmon",
	Short: "Copy a collector host's syslog file to the configured log monitor",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		lock := &agent.PidLock{Path: filepath.Join(cfg.Paths.Root, fmt.Sprintf("copy-log-from-%s-to-logmon.lock", copyLogHost))}
		if err := lock.Acquire(); err != nil {
			return err
		}
		defer lock.Release()

		r := newRemote(cfg)
		pullRes, err := r.SSH(context.Background(), copyLogHost, "ivxv", []string{"cat", copyLogFile}, nil, true, false)
		if err != nil {
			return err
		}
		if pullRes.Exit != 0 {
			return fmt.Errorf("read %s on %s: %s", copyLogFile, copyLogHost, pullRes.Stderr)
		}
		pushRes, err := r.SSH(context.Background(), copyLogMonitorHost, "ivxv", []string{"ivxv-admin-helper", "append-log", copyLogHost}, strings.NewReader(pullRes.Stdout), true, false)
		if err != nil {
			return err
		}
		if pushRes.Exit != 0 {
			return fmt.Errorf("append log on %s: %s", copyLogMonitorHost, pushRes.Stderr)
		}
		fmt.Printf("copied %s from %s to %s\n", copyLogFile, copyLogHost, copyLogMonitorHost)
		return nil
	},
}

func init() {
	copyLogToLogmonCmd.Flags().StringVar(&copyLogHost, "host", "", "collector host whose syslog to copy")
	copyLogToLogmonCmd.Flags().StringVar(&copyLogFile, "file", "/var/log/ivxv/ivxv.log", "path to the syslog file on the collector host")
	copyLogToLogmonCmd.Flags().StringVar(&copyLogMonitorHost, "logmon", "", "log monitor host")
	copyLogToLogmonCmd.MarkFlagRequired("host")
	copyLogToLogmonCmd.MarkFlagRequired("logmon")
	rootCmd.AddCommand(copyLogToLogmonCmd)
}
