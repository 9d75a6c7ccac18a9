package cmd

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"ivxv.ee/collector-admin/api"
	"ivxv.ee/collector-admin/core/ballotbox"
	"ivxv.ee/collector-admin/core/processorinput"
)

var (
	adminHTTPDAddr           string
	adminHTTPDLogMonitorHost string
)

var adminHTTPDCmd = &cobra.Command{
	Use:   "admin-httpd",
	Short: "Serve the HTTP API consumed by the web UI and command-artifact uploads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		db := openStore(cfg, "admin-httpd")
		events := openEvents(cfg)
		loader := newLoader(cfg, db, events)

		votingHostAddr, err := votingHost(db)
		if err != nil {
			return err
		}

		srv := &api.Server{
			DB:             db,
			Loader:         loader,
			Events:         events,
			BallotBox:      &ballotbox.Exporter{Dir: cfg.Paths.BallotBox, Binary: "ivxv-votes-export"},
			Consolidated:   &ballotbox.Exporter{Dir: cfg.Paths.BallotBox, Binary: "ivxv-votes-export-consolidated"},
			ProcessorInput: &processorinput.Builder{DB: db, ActiveDir: cfg.Paths.Active},
			Remote:         newRemote(cfg),
			PermissionsDir: cfg.Paths.AdminUIPerms,
			StatusPath:     filepath.Join(cfg.Paths.AdminUIData, "status.json"),
			UploadDir:      cfg.Paths.Upload,
			LogMonitorHost: adminHTTPDLogMonitorHost,
			VotingHost:     votingHostAddr,
			Log:            cfg.Logger("api"),
		}

		fmt.Printf("admin-httpd listening on %s\n", adminHTTPDAddr)
		return http.ListenAndServe(adminHTTPDAddr, srv.Router())
	},
}

func init() {
	adminHTTPDCmd.Flags().StringVar(&adminHTTPDAddr, "listen", ":8443", "HTTP listen address (TLS termination is expected to happen in front of this process)")
	adminHTTPDCmd.Flags().StringVar(&adminHTTPDLogMonitorHost, "logmon", "", "log monitor host for the voter-detail-stats route")
	rootCmd.AddCommand(adminHTTPDCmd)
}
