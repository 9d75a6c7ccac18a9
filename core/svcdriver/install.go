package svcdriver

import (
	"context"

	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/ivxverr"
)

// InstallHost registers a previously unseen host: copies the common
// package, installs its dependencies, pushes the admin SSH key, and
// revokes root access, per spec.md §4.6 "installHost". Pre-state
// host/state="", post-state host/state=REGISTERED on success.
func (d *Driver) InstallHost(ctx context.Context, hostname string) error {
	commonPkg := "/var/lib/ivxv/deb-pkg/ivxv-common.deb"
	steps := [][]string{
		{"ivxv-admin-helper", "install-package", commonPkg},
		{"ivxv-admin-helper", "install-dependencies"},
		{"ivxv-admin-helper", "install-admin-key"},
		{"ivxv-admin-helper", "revoke-root-access"},
	}
	for _, argv := range steps {
		res, err := d.Remote.SSH(ctx, hostname, Account, argv, nil, true, false)
		if err != nil {
			return err
		}
		if res.Exit != 0 {
			return ivxverr.NewRemote(hostname, argv, res.Exit, res.Stderr)
		}
	}
	if err := d.DB.Set(dbkey.Host(hostname, "state"), "REGISTERED"); err != nil {
		return err
	}
	d.logEvent("SERVICE_STATE_CHANGE", "", "", "REGISTERED")
	return nil
}
