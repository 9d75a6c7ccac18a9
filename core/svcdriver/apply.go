package svcdriver

import (
	"context"
	"fmt"

	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/ivxverr"
)

// ApplyTechnical installs/updates the service package, writes the rsyslog
// config, installs the trust and technical bdoc containers, and (for
// backup services) runs the crontab installer, per spec.md §4.6. On
// success service/state becomes INSTALLED if it was NOT_INSTALLED, and
// technical-conf-version is set to version.
func (d *Driver) ApplyTechnical(ctx context.Context, svc Service, version, trustBdoc, technicalBdoc string) error {
	pkg := "/var/lib/ivxv/deb-pkg/ivxv-" + svc.Type + ".deb"
	if res, err := d.Remote.SSH(ctx, svc.Host, Account, []string{"ivxv-admin-helper", "install-package", pkg}, nil, true, false); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, []string{"install-package", pkg}, res.Exit, res.Stderr)
	}

	if res, err := d.Remote.SCP(ctx, trustBdoc, svc.Host+":/etc/ivxv/trust.bdoc", Account, 0); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, []string{"scp", "trust.bdoc"}, res.Exit, res.Stderr)
	}
	if res, err := d.Remote.SCP(ctx, technicalBdoc, svc.Host+":/etc/ivxv/technical.bdoc", Account, 0); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, []string{"scp", "technical.bdoc"}, res.Exit, res.Stderr)
	}

	if res, err := d.Remote.SSH(ctx, svc.Host, Account, []string{"ivxv-admin-helper", "write-rsyslog-conf", svc.ID}, nil, true, false); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, []string{"write-rsyslog-conf"}, res.Exit, res.Stderr)
	}

	if svc.Type == "backup" {
		if res, err := d.Remote.SSH(ctx, svc.Host, Account, []string{"ivxv-admin-helper", "install-crontab", svc.ID}, nil, true, false); err != nil {
			return err
		} else if res.Exit != 0 {
			return ivxverr.NewRemote(svc.Host, []string{"install-crontab"}, res.Exit, res.Stderr)
		}
	}

	current, _, err := d.DB.Get(dbkey.Service(svc.ID, "state"))
	if err != nil {
		return err
	}
	kv := map[string]string{
		dbkey.Service(svc.ID, "technical-conf-version"): version,
	}
	if current == "NOT_INSTALLED" || current == "" {
		kv[dbkey.Service(svc.ID, "state")] = "INSTALLED"
	}
	if err := d.DB.SetMany(kv); err != nil {
		return err
	}
	d.logEvent("SERVICE_CONFIG_APPLY", svc.ID, "technical", version)
	return nil
}

// ApplyElection enables and restarts the service's systemd unit, requiring
// the technical config already be applied. On success service/state
// becomes CONFIGURED and election-conf-version is set.
func (d *Driver) ApplyElection(ctx context.Context, svc Service, version, electionBdoc string) error {
	current, _, err := d.DB.Get(dbkey.Service(svc.ID, "technical-conf-version"))
	if err != nil {
		return err
	}
	if current == "" {
		return ivxverr.NewValidation("", "service %s: technical config must be applied first", svc.ID)
	}

	if res, err := d.Remote.SCP(ctx, electionBdoc, svc.Host+":/etc/ivxv/election.bdoc", Account, 0); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, []string{"scp", "election.bdoc"}, res.Exit, res.Stderr)
	}

	for _, action := range []string{"enable", "restart"} {
		argv := []string{"ivxv-admin-sudo", "systemctl", action, unitName(svc.Type)}
		res, err := d.Remote.SSH(ctx, svc.Host, Account, argv, nil, true, false)
		if err != nil {
			return err
		}
		if res.Exit != 0 {
			return ivxverr.NewRemote(svc.Host, argv, res.Exit, res.Stderr)
		}
	}

	if err := d.DB.SetMany(map[string]string{
		dbkey.Service(svc.ID, "state"):                 "CONFIGURED",
		dbkey.Service(svc.ID, "election-conf-version"): version,
	}); err != nil {
		return err
	}
	d.logEvent("SERVICE_CONFIG_APPLY", svc.ID, "election", version)
	return nil
}

// ApplyList invokes the service's own *-imp helper for one of the three
// voting-list artifact types (spec.md §4.6 "applyList"). changeset is only
// meaningful for "voters"; pass -1 for choices/districts.
func (d *Driver) ApplyList(ctx context.Context, svc Service, listType string, changeset int, listPath string) error {
	helper := impHelper(listType)
	if helper == "" {
		return ivxverr.NewInternalInvariant("unknown list type %q", listType)
	}

	current, _, err := d.DB.Get(dbkey.Service(svc.ID, "state"))
	if err != nil {
		return err
	}
	if current != "CONFIGURED" {
		return ivxverr.NewValidation("", "service %s: must be CONFIGURED before applying %s list", svc.ID, listType)
	}

	remotePath := "/var/lib/ivxv/" + listType + ".list"
	if res, err := d.Remote.SCP(ctx, listPath, svc.Host+":"+remotePath, Account, 0); err != nil {
		return err
	} else if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, []string{"scp", listType}, res.Exit, res.Stderr)
	}

	if listType == "voters" {
		if err := d.checkVersionDrift(ctx, svc, helper, changeset); err != nil {
			return err
		}
	}

	argv := []string{helper, "--apply", remotePath}
	res, err := d.Remote.SSH(ctx, svc.Host, Account, argv, nil, true, false)
	if err != nil {
		return err
	}
	if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, argv, res.Exit, res.Stderr)
	}

	d.logEvent("SERVICE_CONFIG_APPLY", svc.ID, listType, "")
	return nil
}

// checkVersionDrift verifies, via the service's own "--check version"
// helper invocation, that the applied voter changesets are a strict prefix
// of the expected ascending sequence, refusing with VersionDriftError when
// they are not (spec.md §4.6 "Voters-list changesets must be applied
// strictly in changeset order").
func (d *Driver) checkVersionDrift(ctx context.Context, svc Service, helper string, changeset int) error {
	argv := []string{helper, "--check", "version"}
	res, err := d.Remote.SSH(ctx, svc.Host, Account, argv, nil, true, false)
	if err != nil {
		return err
	}
	if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, argv, res.Exit, res.Stderr)
	}
	applied, err := parseAppliedChangesets(res.Stdout)
	if err != nil {
		return err
	}
	if len(applied) != changeset {
		return ivxverr.NewVersionDrift(svc.ID, fmt.Sprintf("%d changesets", changeset), fmt.Sprintf("%d changesets", len(applied)))
	}
	for i, n := range applied {
		if n != i {
			return ivxverr.NewVersionDrift(svc.ID, fmt.Sprintf("changeset %d at position %d", i, i), fmt.Sprintf("changeset %d", n))
		}
	}
	return nil
}

// Restart restarts the service's systemd unit, then pings it; state
// becomes CONFIGURED on a successful ping, or bg_info is set on failure.
func (d *Driver) Restart(ctx context.Context, svc Service) error {
	argv := []string{"ivxv-admin-sudo", "systemctl", "restart", unitName(svc.Type)}
	res, err := d.Remote.SSH(ctx, svc.Host, Account, argv, nil, true, false)
	if err != nil {
		return err
	}
	if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, argv, res.Exit, res.Stderr)
	}
	if err := d.Ping(ctx, svc); err != nil {
		return err
	}
	return d.DB.Set(dbkey.Service(svc.ID, "state"), "CONFIGURED")
}

// Stop stops the service's systemd unit.
func (d *Driver) Stop(ctx context.Context, svc Service) error {
	argv := []string{"ivxv-admin-sudo", "systemctl", "stop", unitName(svc.Type)}
	res, err := d.Remote.SSH(ctx, svc.Host, Account, argv, nil, true, false)
	if err != nil {
		return err
	}
	if res.Exit != 0 {
		return ivxverr.NewRemote(svc.Host, argv, res.Exit, res.Stderr)
	}
	return nil
}
