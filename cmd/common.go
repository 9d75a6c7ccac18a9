package cmd

import (
	"fmt"
	"os"

	"ivxv.ee/collector-admin/core/collstate"
	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/eventlog"
	"ivxv.ee/collector-admin/core/rawconfig"
	"ivxv.ee/collector-admin/core/remote"
	"ivxv.ee/collector-admin/core/store"
	"ivxv.ee/collector-admin/core/svcdriver"
)

// loadConfig reads IVXV_ADMIN_CONF/IVXV_ADMIN_DATA_PATH, the two
// environment variables spec.md §6 requires of every entry point, and
// fails the process immediately if either is missing.
func loadConfig() *rawconfig.T {
	cfg, err := rawconfig.Load()
	if err != nil {
		fatal(err)
	}
	return cfg
}

// fatal prints a single error line and exits 1, matching spec.md §7 "CLI
// commands print the last error line and exit non-zero."
func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func openStore(cfg *rawconfig.T, component string) *store.T {
	return store.Open(cfg.Paths.DB, cfg.Logger(component))
}

func openEvents(cfg *rawconfig.T) *eventlog.T {
	return eventlog.Open(cfg.Paths.EventLog)
}

func newLoader(cfg *rawconfig.T, db *store.T, events *eventlog.T) *commandfile.Loader {
	return &commandfile.Loader{
		DB:             db,
		Events:         events,
		CommandsDir:    cfg.Paths.Commands,
		ActiveDir:      cfg.Paths.Active,
		AdminUIData:    cfg.Paths.AdminUIData,
		PermissionsDir: cfg.Paths.AdminUIPerms,
		Log:            cfg.Logger("commandfile"),
	}
}

func newRemote(cfg *rawconfig.T) *remote.T {
	return remote.New(cfg.Logger("remote"))
}

// logMonitorHost reads the log monitor's registered address out of the
// database.
func logMonitorHost(db *store.T) (string, error) {
	v, _, err := db.Get("logmonitor/address")
	return v, err
}

// votingHost returns the address of the first registered voting-type
// service, the target of the voting-sessions CSV export.
func votingHost(db *store.T) (string, error) {
	rows, err := db.All("service/")
	if err != nil {
		return "", err
	}
	for _, row := range collstate.ServiceRowsFromRows(rows) {
		if row.ServiceType == "voting" {
			return row.IPAddress, nil
		}
	}
	return "", nil
}

func newDriver(cfg *rawconfig.T, db *store.T, events *eventlog.T) *svcdriver.Driver {
	return &svcdriver.Driver{
		DB:     db,
		Remote: newRemote(cfg),
		Events: events,
		Log:    cfg.Logger("svcdriver"),
	}
}
