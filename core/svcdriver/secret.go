package svcdriver

import (
	"context"

	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/ivxverr"
)

// LoadSecret copies a secret file (TLS key/cert, mid token key, tspreg key)
// to its per-type remote path and mode, restarts the service, and records
// the file's sha256 under the relevant database key (spec.md §4.6
// "loadSecret"). The original's FIXME about avoiding redundant copies to a
// shared host is a known optimization opportunity, not implemented here
// (spec.md §9).
func (d *Driver) LoadSecret(ctx context.Context, svc Service, kind, localFile, sha256 string) error {
	dest, err := secretDestination(kind)
	if err != nil {
		return ivxverr.NewInternalInvariant("%s", err)
	}

	if res, err := d.Remote.SCP(ctx, localFile, svc.Host+":"+dest.path, Account, 0); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, []string{"scp", kind}, res.Exit, res.Stderr)
	}

	chmodArgv := []string{"ivxv-admin-sudo", "chmod", dest.mode, dest.path}
	if res, err := d.Remote.SSH(ctx, svc.Host, Account, chmodArgv, nil, true, false); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, chmodArgv, res.Exit, res.Stderr)
	}

	if err := d.Restart(ctx, svc); err != nil {
		return err
	}

	if err := d.DB.Set(dbkey.Service(svc.ID, secretDBField(kind)), sha256); err != nil {
		return err
	}
	d.logEvent("SECRET_INSTALL", svc.ID, kind)
	return nil
}
