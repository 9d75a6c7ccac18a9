package agent

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ivxv.ee/collector-admin/core/collstate"
	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/eventlog"
	"ivxv.ee/collector-admin/core/remote"
	"ivxv.ee/collector-admin/core/store"
	"ivxv.ee/collector-admin/core/svcdriver"
)

const (
	pingInterval   = 60 * time.Second
	interPingDelay = 1 * time.Second
	minLoopPeriod  = 5 * time.Second
	maxAttempts    = 3
)

// Agent is C7's single long-running task: it owns no state beyond its
// pidfile — every decision is recomputed each iteration straight out of
// core/store and core/collstate (spec.md §4.7).
type Agent struct {
	DB            *store.T
	Driver        *svcdriver.Driver
	Remote        *remote.T
	Events        *eventlog.T
	Metrics       *Metrics
	Log           *zerolog.Logger
	CommandsDir   string
	ActiveDir     string
	DebPkgDir     string
	StatusPath    string
	StatsPath     string
	PidLockPath   string
	LogMonitorHost string
	KnownDistricts map[string]bool // for filling missing per-district stat rows
	SelfBinary    string           // argv[0] used to spawn `config-apply --type=<t>`
	Now           func() time.Time
}

func (a *Agent) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Run loops indefinitely until ctx is cancelled, sleeping as needed to
// maintain at least minLoopPeriod between iterations. SSH sub-processes in
// flight when ctx is cancelled are allowed to finish; cancellation is only
// checked between iterations (spec.md §4.7, §5 "Cancellation & timeouts").
func (a *Agent) Run(ctx context.Context) error {
	for {
		start := a.now()
		if err := a.RunOnce(context.WithoutCancel(ctx)); err != nil && a.Log != nil {
			a.Log.Error().Err(err).Msg("agent iteration failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		elapsed := a.now().Sub(start)
		if elapsed < minLoopPeriod {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(minLoopPeriod - elapsed):
			}
		}
	}
}

// RunOnce performs steps 1-5 of one agent iteration (spec.md §4.7); the
// minimum loop period of step 6 is kept by Run.
func (a *Agent) RunOnce(ctx context.Context) error {
	lock := &PidLock{Path: a.PidLockPath}
	if err := lock.reapIfStale(); err != nil {
		return err
	}

	if err := a.pingDueServices(ctx); err != nil && a.Log != nil {
		a.Log.Warn().Err(err).Msg("ping pass failed")
	}

	if err := a.refreshSnapshot(); err != nil {
		return err
	}

	if err := a.autoApplyPending(ctx, lock); err != nil && a.Log != nil {
		a.Log.Warn().Err(err).Msg("autoapply pass failed")
	}

	if err := a.pullStats(ctx); err != nil && a.Log != nil {
		a.Log.Warn().Err(err).Msg("stats pull failed")
	}

	return nil
}

// pullStats fetches the log monitor's raw stats file over SSH, normalizes
// it into sorted top-N lists and fills in any missing district rows, then
// merges the result into stats.json (spec.md §4.7 step 5).
func (a *Agent) pullStats(ctx context.Context) error {
	if a.LogMonitorHost == "" || a.Remote == nil || a.StatsPath == "" {
		return nil
	}
	res, err := a.Remote.SSH(ctx, a.LogMonitorHost, "ivxv", []string{"ivxv-voterstats", "--raw"}, nil, true, false)
	if err != nil {
		return err
	}
	if res.Exit != 0 {
		return nil // a stale/unreachable log monitor is not fatal to the loop
	}

	var raw struct {
		VotingSessionsByDistrict map[string]int `json:"voting_sessions_by_district"`
		VoterDetailByStation     map[string]int `json:"voter_detail_by_station"`
	}
	if err := json.Unmarshal([]byte(res.Stdout), &raw); err != nil {
		return nil
	}

	sessions := NormalizeTopN(raw.VotingSessionsByDistrict, 100)
	sessions = FillMissingDistricts(sessions, a.KnownDistricts)
	stations := NormalizeTopN(raw.VoterDetailByStation, 10)

	return WriteStats(a.StatsPath, &Stats{
		VotingSessionsByDistrict: sessions,
		VoterDetailByStation:     stations,
	})
}

// pingDueServices pings every CONFIGURED or FAILURE service whose last-data
// is stale, at most once per loop per service, spaced interPingDelay apart.
func (a *Agent) pingDueServices(ctx context.Context) error {
	rows, err := a.DB.All("service/")
	if err != nil {
		return err
	}
	services := collstate.ServiceRowsFromRows(rows)
	now := a.now()

	first := true
	for _, svc := range services {
		if svc.State != "CONFIGURED" && svc.State != "FAILURE" {
			continue
		}
		if !isStale(svc.LastData, now) {
			continue
		}
		if !first {
			time.Sleep(interPingDelay)
		}
		first = false

		if a.Metrics != nil {
			a.Metrics.Pings.Inc()
		}
		driverSvc := svcdriver.Service{ID: svc.ID, Type: svc.ServiceType, Host: svc.IPAddress}
		if err := a.Driver.Ping(ctx, driverSvc); err != nil {
			if a.Metrics != nil {
				a.Metrics.PingFailures.Inc()
			}
			if a.Log != nil {
				a.Log.Warn().Err(err).Str("service", svc.ID).Msg("ping failed")
			}
		}
	}
	return nil
}

func isStale(lastData string, now time.Time) bool {
	if lastData == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, lastData)
	if err != nil {
		return true
	}
	return now.Sub(t) >= pingInterval
}

// refreshSnapshot regenerates the status.json document (spec.md §4.4).
func (a *Agent) refreshSnapshot() error {
	rows, err := a.DB.All("")
	if err != nil {
		return err
	}
	snap, err := collstate.Generate(a.now(), rows, a.CommandsDir, a.DebPkgDir)
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return atomicWrite(a.StatusPath, b)
}

// autoApplyPending spawns at most one `config-apply --type=<t>` background
// process for the highest-priority pending command, guarded by the pidfile
// lock (spec.md §4.7 step 4).
func (a *Agent) autoApplyPending(ctx context.Context, lock *PidLock) error {
	target, ok, err := a.nextApplicable()
	if err != nil || !ok {
		return err
	}

	if err := lock.Acquire(); err != nil {
		return nil // another apply is already in flight
	}
	defer lock.Release()

	if a.Metrics != nil {
		a.Metrics.Applies.WithLabelValues(target.cfgType).Inc()
	}
	return a.spawn(ctx, target)
}

// applyTarget names one command eligible for auto-apply: its type, and, for
// voters, the changeset number.
type applyTarget struct {
	cfgType     string
	voterListNo int
}

// nextApplicable walks spec.md §4.7's fixed precedence (technical, election,
// choices, districts, then voters ascending) looking for the first
// registered-but-unapplied command with autoapply=true, completed=false and
// attempts<maxAttempts, per its apply-progress sidecar.
func (a *Agent) nextApplicable() (applyTarget, bool, error) {
	for _, t := range OrderCommandTypes {
		if t == "voters" {
			continue
		}
		key := dbkey.Config(t)
		if t == "choices" || t == "districts" {
			key = "list/" + t
		}
		version, ok, err := a.DB.Get(key)
		if err != nil {
			return applyTarget{}, false, err
		}
		if !ok || version == "" {
			continue
		}
		applicable, err := a.progressApplicable(commandfile.Type(t), 0)
		if err != nil {
			return applyTarget{}, false, err
		}
		if applicable {
			return applyTarget{cfgType: t}, true, nil
		}
	}

	states, err := a.pendingVoterStates()
	if err != nil {
		return applyTarget{}, false, err
	}
	for _, n := range OrderVoterChangesets(states) {
		applicable, err := a.progressApplicable(commandfile.TypeVoters, n)
		if err != nil {
			return applyTarget{}, false, err
		}
		if applicable {
			return applyTarget{cfgType: "voters", voterListNo: n}, true, nil
		}
	}
	return applyTarget{}, false, nil
}

func (a *Agent) pendingVoterStates() (map[int]string, error) {
	rows, err := a.DB.All("list/voters")
	if err != nil {
		return nil, err
	}
	out := map[int]string{}
	for k, v := range rows {
		n, field, ok := parseVoterKey(k)
		if !ok || field != "state" {
			continue
		}
		out[n] = v
	}
	return out, nil
}

// parseVoterKey splits a list/voters<NNNN>[-field] key into its changeset
// number and optional field suffix.
func parseVoterKey(key string) (n int, field string, ok bool) {
	rest := strings.TrimPrefix(key, "list/voters")
	if rest == key || len(rest) < 4 {
		return 0, "", false
	}
	digits, tail := rest[:4], rest[4:]
	num, err := strconv.Atoi(digits)
	if err != nil {
		return 0, "", false
	}
	field = strings.TrimPrefix(tail, "-")
	return num, field, true
}

// progressApplicable inspects the apply-progress sidecar behind the active
// symlink for (t, voterListNo), reporting whether config-apply should be
// spawned for it (spec.md §4.7 step 4).
func (a *Agent) progressApplicable(t commandfile.Type, voterListNo int) (bool, error) {
	path, err := commandfile.ProgressPathFor(a.ActiveDir, t, voterListNo)
	if err != nil || path == "" {
		return false, err
	}
	p, err := commandfile.ReadProgress(path)
	if err != nil {
		return false, err
	}
	return p.Autoapply && !p.Completed && p.Attempts < maxAttempts, nil
}

func (a *Agent) spawn(ctx context.Context, target applyTarget) error {
	bin := a.SelfBinary
	if bin == "" {
		bin = "/usr/bin/ivxv-config-apply"
	}
	args := []string{"config-apply", "--type=" + target.cfgType}
	if target.cfgType == "voters" {
		args = append(args, "--changeset", strconv.Itoa(target.voterListNo))
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	return cmd.Start()
}
