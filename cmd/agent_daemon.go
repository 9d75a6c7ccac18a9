package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/core/agent"
)

var agentDaemonLogMonitorHost string

var agentDaemonCmd = &cobra.Command{
	Use:   "agent-daemon",
	Short: "Run the long-lived polling/reconciliation loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "agent")
		events := openEvents(cfg)
		driver := newDriver(cfg, db, events)
		log := cfg.Logger("agent")

		reg := prometheus.NewRegistry()
		metrics := agent.NewMetrics(reg)

		selfBinary, err := os.Executable()
		if err != nil {
			selfBinary = ""
		}

		a := &agent.Agent{
			DB:             db,
			Driver:         driver,
			Remote:         newRemote(cfg),
			Events:         events,
			Metrics:        metrics,
			Log:            log,
			CommandsDir:    cfg.Paths.Commands,
			ActiveDir:      cfg.Paths.Active,
			DebPkgDir:      cfg.Paths.DebPkg,
			StatusPath:     filepath.Join(cfg.Paths.AdminUIData, "status.json"),
			StatsPath:      filepath.Join(cfg.Paths.AdminUIData, "stats.json"),
			PidLockPath:    filepath.Join(cfg.Paths.Root, "agent.lock"),
			LogMonitorHost: agentDaemonLogMonitorHost,
			SelfBinary:     selfBinary,
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func init() {
	agentDaemonCmd.Flags().StringVar(&agentDaemonLogMonitorHost, "logmon", "", "log monitor host to pull stats from")
	rootCmd.AddCommand(agentDaemonCmd)
}
