package svcdriver

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/ivxverr"
)

const maxPingErrors = 3

// statusReport is the JSON a service's systemd unit status embeds in its
// output, naming the configuration versions it currently considers active
// (spec.md §4.6 "pingVerify").
type statusReport struct {
	TechnicalConfVersion string   `json:"technical-conf-version"`
	ElectionConfVersion  string   `json:"election-conf-version"`
	AppliedVersions      []string `json:"applied-versions"`
}

// Ping probes a service's systemd unit and self-reported config version.
// last-data is set to now regardless of outcome; ping-errors is reset to 0
// on success or incremented on failure. Three consecutive failures force
// service/state=FAILURE (spec.md §4.6 "ping", §7 RemoteError).
func (d *Driver) Ping(ctx context.Context, svc Service) error {
	now := d.now().UTC().Format(time.RFC3339)
	argv := []string{"ivxv-admin-sudo", "systemctl", "status", unitName(svc.Type)}
	res, err := d.Remote.SSH(ctx, svc.Host, Account, argv, nil, true, false)
	if err != nil {
		return err
	}

	if res.Exit != 0 {
		return d.recordPingFailure(svc, now, ivxverr.NewRemote(svc.Host, argv, res.Exit, res.Stderr))
	}

	report, err := parseStatusReport(res.Stdout)
	if err != nil {
		return d.recordPingFailure(svc, now, err)
	}
	if err := d.verifyVersions(svc, report); err != nil {
		return d.recordPingFailure(svc, now, err)
	}

	return d.DB.SetMany(map[string]string{
		dbkey.Service(svc.ID, "last-data"):    now,
		dbkey.Service(svc.ID, "ping-errors"): "0",
	})
}

// verifyVersions rejects when the database's recorded current version for
// a config type is not among the versions the service itself reports
// (spec.md §4.6). Empty database versions are not yet applicable and skip
// the check.
func (d *Driver) verifyVersions(svc Service, report *statusReport) error {
	techVersion, _, err := d.DB.Get(dbkey.Service(svc.ID, "technical-conf-version"))
	if err != nil {
		return err
	}
	if techVersion != "" && !contains(report.AppliedVersions, techVersion) && report.TechnicalConfVersion != techVersion {
		return ivxverr.NewVersionDrift(svc.ID, techVersion, report.TechnicalConfVersion)
	}
	electionVersion, _, err := d.DB.Get(dbkey.Service(svc.ID, "election-conf-version"))
	if err != nil {
		return err
	}
	if electionVersion != "" && !contains(report.AppliedVersions, electionVersion) && report.ElectionConfVersion != electionVersion {
		return ivxverr.NewVersionDrift(svc.ID, electionVersion, report.ElectionConfVersion)
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// recordPingFailure increments ping-errors, sets last-data regardless, and
// records bg_info; once ping-errors reaches maxPingErrors the service is
// forced into FAILURE. §9 open question: the counter does not currently
// saturate past maxPingErrors, it keeps counting.
func (d *Driver) recordPingFailure(svc Service, now string, cause error) error {
	countStr, _, err := d.DB.Get(dbkey.Service(svc.ID, "ping-errors"))
	if err != nil {
		return err
	}
	count, _ := strconv.Atoi(countStr)
	count++

	kv := map[string]string{
		dbkey.Service(svc.ID, "last-data"):    now,
		dbkey.Service(svc.ID, "ping-errors"): strconv.Itoa(count),
		dbkey.Service(svc.ID, "bg_info"):      cause.Error(),
	}
	if count >= maxPingErrors {
		kv[dbkey.Service(svc.ID, "state")] = "FAILURE"
		d.logEvent("SERVICE_STATE_CHANGE", svc.ID, "CONFIGURED", "FAILURE")
	}
	if err := d.DB.SetMany(kv); err != nil {
		return err
	}
	return cause
}

func parseStatusReport(stdout string) (*statusReport, error) {
	i := strings.IndexByte(stdout, '{')
	j := strings.LastIndexByte(stdout, '}')
	if i < 0 || j < i {
		return nil, ivxverr.NewInternalInvariant("service status output did not contain a JSON report")
	}
	var report statusReport
	if err := json.Unmarshal([]byte(stdout[i:j+1]), &report); err != nil {
		return nil, ivxverr.WrapInternalInvariant(err, "decode service status report")
	}
	return &report, nil
}

// parseAppliedChangesets decodes a voterimp --check version report, a
// JSON array of applied changeset numbers.
func parseAppliedChangesets(stdout string) ([]int, error) {
	i := strings.IndexByte(stdout, '[')
	j := strings.LastIndexByte(stdout, ']')
	if i < 0 || j < i {
		return nil, ivxverr.NewInternalInvariant("voterimp --check output did not contain a JSON array")
	}
	var applied []int
	if err := json.Unmarshal([]byte(stdout[i:j+1]), &applied); err != nil {
		return nil, ivxverr.WrapInternalInvariant(err, "decode applied changeset list")
	}
	return applied, nil
}
