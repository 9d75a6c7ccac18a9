// Loader ties container extraction, schema validation, signature
// authorization and database/file-system registration into the single
// "load a command" operation exposed to the CLI and HTTP layers.
package commandfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"ivxv.ee/collector-admin/core/configschema"
	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/eventlog"
	"ivxv.ee/collector-admin/core/ivxverr"
	"ivxv.ee/collector-admin/core/permissions"
	"ivxv.ee/collector-admin/core/store"
)

// condKeyParams is the per-service-type subset of core/collstate's
// ServiceTypeParams table needed to gate conditional service key creation.
// It is duplicated rather than imported because core/collstate imports this
// package (for Progress/history types), so the reverse import would cycle.
type condKeyParams struct {
	RequireTLS bool
	MobileID   bool
	Tspreg     bool
}

var condKeyServiceTypes = map[string]condKeyParams{
	"backup":       {},
	"choices":      {RequireTLS: true, MobileID: true},
	"log":          {},
	"mid":          {RequireTLS: true, MobileID: true},
	"votesorder":   {RequireTLS: true},
	"proxy":        {},
	"smartid":      {RequireTLS: true, MobileID: true},
	"storage":      {RequireTLS: true},
	"verification": {RequireTLS: true},
	"voting":       {RequireTLS: true, Tspreg: true, MobileID: true},
}

// Loader orchestrates C3's single entry point, Load.
type Loader struct {
	DB             *store.T
	Events         *eventlog.T
	CommandsDir    string
	ActiveDir      string
	AdminUIData    string
	PermissionsDir string
	Log            *zerolog.Logger
	Now            func() time.Time
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Result is what a successful Load reports back to its caller.
type Result struct {
	Type          Type
	Version       string
	Timestamp     string
	HistoryPath   string
	ActivePath    string
	ProgressPath  string
	VoterListNo   int
	Payload       interface{}
}

// Load validates, authorizes and registers one command container. showVersionOnly
// stops after signature/version resolution, matching ivxv-cmd-load --show-version.
func (l *Loader) Load(ctx context.Context, t Type, srcPath string, autoapply, showVersionOnly bool) (*Result, error) {
	if !Valid(t) {
		return nil, ivxverr.NewValidation("", "invalid command type %q", t)
	}
	if err := l.checkLoadingState(t); err != nil {
		return nil, err
	}

	filename, raw, err := ExtractPayload(t, srcPath)
	if err != nil {
		return nil, err
	}

	cfg, err := parseAndValidate(t, raw)
	if err != nil {
		return nil, err
	}
	if err := l.checkElectionID(t, cfg); err != nil {
		return nil, err
	}

	trustContainerPath := srcPath
	if t != TypeTrust {
		trustContainerPath = filepath.Join(l.ActiveDir, "trust.bdoc")
	}
	sigs, err := VerifySignatures(ctx, trustContainerPath, srcPath)
	if err != nil {
		return nil, err
	}

	var authorized []Authorization
	if t == TypeTrust {
		trust := cfg.(*configschema.TrustConfig)
		authorized = AuthorizeAgainstTrust(sigs, trust.Authorizations)
	} else {
		authorized = AuthorizeAgainstDatabase(sigs, t, l.lookupUserRoles)
	}
	if len(authorized) == 0 {
		return nil, ivxverr.NewSignature("no signatures by authorized users")
	}
	winner := authorized[0]
	version := winner.Signature.Line
	timestamp := winner.Signature.Timestamp.Format("2006-01-02T15:04:05Z")

	if showVersionOnly {
		return &Result{Type: t, Version: version, Timestamp: timestamp, Payload: cfg}, nil
	}

	if IsCfgType(t) {
		current, _, err := l.DB.Get(dbkey.Config(string(t)))
		if err != nil {
			return nil, err
		}
		if current == version {
			return nil, ivxverr.NewValidation("", "%s version %q is already loaded", Descriptions[t], version)
		}
	}

	l.logEvent("CMD_LOAD", "", string(t), version)

	voterListNo := 0
	if t == TypeVoters {
		voterListNo, err = l.nextVoterListNo()
		if err != nil {
			return nil, err
		}
	}

	historyPath, err := copyToHistory(l.CommandsDir, t, timestamp, srcPath)
	if err != nil {
		return nil, err
	}

	if err := l.applyDatabaseEffects(t, cfg, version, voterListNo); err != nil {
		return nil, err
	}
	if t == TypeDistricts {
		if err := l.writeDistrictsJSON(cfg.(*configschema.DistrictsConfig)); err != nil {
			return nil, err
		}
	}

	activePath, progressPath, err := linkActive(l.ActiveDir, t, voterListNo, historyPath, version, autoapply)
	if err != nil {
		return nil, err
	}

	l.logEvent("CMD_LOADED", "", string(t), version)

	_ = filename
	return &Result{
		Type: t, Version: version, Timestamp: timestamp,
		HistoryPath: historyPath, ActivePath: activePath, ProgressPath: progressPath,
		VoterListNo: voterListNo, Payload: cfg,
	}, nil
}

func (l *Loader) logEvent(event, service, cmdType, version string) {
	if l.Events == nil {
		return
	}
	_ = l.Events.Info(event, service, cmdType, version)
}

func (l *Loader) lookupUserRoles(cn string) ([]string, bool) {
	v, ok, err := l.DB.Get(dbkey.User(cn))
	if err != nil || !ok || v == "" {
		return nil, false
	}
	return strings.Split(v, ","), true
}

func (l *Loader) checkLoadingState(t Type) error {
	switch t {
	case TypeChoices:
		v, ok, err := l.DB.Get("list/choices")
		if err != nil {
			return err
		}
		if ok && v != "" {
			return ivxverr.NewValidation("", "choices list is already loaded (version: %s)", v)
		}
	case TypeTechnical:
		v, ok, err := l.DB.Get(dbkey.Config("trust"))
		if err != nil {
			return err
		}
		if !ok || v == "" {
			return ivxverr.NewValidation("", "trust root must be loaded before technical configuration")
		}
	}
	return nil
}

// checkElectionID enforces that any non-trust/technical/user artifact
// agrees with the already-registered election identifier, once one exists.
func (l *Loader) checkElectionID(t Type, cfg interface{}) error {
	if t == TypeTrust || t == TypeTechnical || t == TypeUser {
		return nil
	}
	electionID, ok, err := l.DB.Get(dbkey.Election("election-id"))
	if err != nil || !ok || electionID == "" {
		return err
	}
	var cfgID string
	switch v := cfg.(type) {
	case *configschema.ElectionConfig:
		cfgID = v.Identifier
	case *configschema.ChoicesConfig:
		cfgID = v.Election
	case *configschema.DistrictsConfig:
		cfgID = v.Election
	case *configschema.VotersList:
		cfgID = v.Election
	}
	if cfgID != "" && cfgID != electionID {
		return ivxverr.NewValidation("", "election ID %q in config file does not match current election ID %q", cfgID, electionID)
	}
	return nil
}

// ParseAndValidate runs the type-specific schema parser/validator over raw
// payload bytes without touching the database or file-system history,
// exposed for the config-validate CLI subcommand (spec.md §4.9).
func ParseAndValidate(t Type, raw []byte) (interface{}, error) {
	return parseAndValidate(t, raw)
}

func parseAndValidate(t Type, raw []byte) (interface{}, error) {
	switch t {
	case TypeTrust:
		return configschema.ParseTrust(raw)
	case TypeTechnical:
		return configschema.ParseTechnical(raw)
	case TypeElection:
		return configschema.ParseElection(raw)
	case TypeChoices:
		return configschema.ParseChoices(raw)
	case TypeDistricts:
		return configschema.ParseDistricts(raw)
	case TypeUser:
		return configschema.ParseUserPermissions(raw)
	case TypeVoters:
		if strings.HasSuffix(string(raw), ".skip.yaml") {
			return configschema.ParseVoterListSkip(raw)
		}
		return configschema.ParseVoters(raw)
	default:
		return nil, ivxverr.NewInternalInvariant("unhandled command type %q", t)
	}
}

// nextVoterListNo scans existing list/voters<NNNN> rows and returns the next
// dense index, per spec.md §3 invariant 2.
func (l *Loader) nextVoterListNo() (int, error) {
	rows, err := l.DB.All("list/voters")
	if err != nil {
		return 0, err
	}
	max := -1
	for k := range rows {
		rest := strings.TrimPrefix(k, "list/voters")
		if strings.Contains(rest, "-") {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1, nil
}

func (l *Loader) writeDistrictsJSON(cfg *configschema.DistrictsConfig) error {
	path := filepath.Join(l.AdminUIData, "districts.json")
	b, err := json.Marshal(cfg.SimplifiedForUI())
	if err != nil {
		return errors.Wrap(err, "marshal simplified districts")
	}
	return atomicWrite(path, b)
}

func atomicWrite(path string, b []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o640); err != nil {
		return errors.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "rename %s to %s", tmp, path)
	}
	return nil
}

// syncPermissions replaces cn's web-permissions marker files with exactly
// the given role set, a no-op when PermissionsDir is unset (e.g. tests that
// exercise the database effects in isolation).
func (l *Loader) syncPermissions(cn string, roles []string) error {
	if l.PermissionsDir == "" {
		return nil
	}
	if err := permissions.Revoke(l.PermissionsDir, cn); err != nil {
		return errors.Wrapf(err, "revoke permissions for %s", cn)
	}
	for role := range configschema.Roles {
		if err := os.Remove(filepath.Join(l.PermissionsDir, cn+"-"+role)); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "revoke %s from %s", role, cn)
		}
	}
	for _, role := range roles {
		if role == "none" {
			continue
		}
		if err := permissions.Grant(l.PermissionsDir, cn, role); err != nil {
			return errors.Wrapf(err, "grant %s to %s", role, cn)
		}
	}
	return nil
}

func (l *Loader) applyDatabaseEffects(t Type, cfg interface{}, version string, voterListNo int) error {
	switch t {
	case TypeTrust:
		trust := cfg.(*configschema.TrustConfig)
		if err := l.DB.Reset(); err != nil {
			return err
		}
		if err := l.DB.Set(dbkey.Config("trust"), version); err != nil {
			return err
		}
		for _, cn := range trust.Authorizations {
			if err := l.DB.Set(dbkey.User(cn), "admin"); err != nil {
				return err
			}
			if err := l.syncPermissions(cn, []string{"admin"}); err != nil {
				return err
			}
		}
		l.logEvent("COLLECTOR_RESET", "", "", "")

	case TypeUser:
		perm := cfg.(*configschema.UserPermissionsConfig)
		sorted := append([]string(nil), perm.Roles...)
		sort.Strings(sorted)
		if err := l.DB.Set(dbkey.User(perm.CN), strings.Join(sorted, ",")); err != nil {
			return err
		}
		if err := l.syncPermissions(perm.CN, sorted); err != nil {
			return err
		}
		l.logEvent("PERMISSION_RESET", "", perm.CN, "")
		l.logEvent("PERMISSION_SET", "", strings.Join(sorted, ","), perm.CN)

	case TypeTechnical:
		technical := cfg.(*configschema.TechnicalConfig)
		if err := l.DB.Set(dbkey.Config("technical"), version); err != nil {
			return err
		}
		if err := l.registerTechnicalServices(technical, version); err != nil {
			return err
		}
		return l.reconcileConditionalServiceKeys(strings.Join(technical.BackupTime, " "))

	case TypeElection:
		election := cfg.(*configschema.ElectionConfig)
		kv := map[string]string{
			dbkey.Config("election"):       version,
			dbkey.Election("election-id"):  election.Identifier,
			dbkey.Election("servicestart"): election.Period.ServiceStart.Format(time.RFC3339),
			dbkey.Election("electionstart"): election.Period.ElectionStart.Format(time.RFC3339),
			dbkey.Election("electionstop"):  election.Period.ElectionStop.Format(time.RFC3339),
			dbkey.Election("servicestop"):   election.Period.ServiceStop.Format(time.RFC3339),
		}
		if err := l.DB.SetMany(kv); err != nil {
			return err
		}
		if err := l.reconcileElectionAuth(election); err != nil {
			return err
		}
		return l.reconcileConditionalServiceKeys("")

	case TypeChoices:
		return l.DB.SetMany(map[string]string{
			"list/choices":         version,
			"list/choices-loaded": "",
		})

	case TypeDistricts:
		return l.DB.SetMany(map[string]string{
			"list/districts":         version,
			"list/districts-loaded": "",
		})

	case TypeVoters:
		return l.DB.SetMany(map[string]string{
			dbkey.VoterList(voterListNo, ""):      version,
			dbkey.VoterList(voterListNo, "state"): "PENDING",
		})
	}
	return nil
}

// registerTechnicalServices creates default rows for every service and host
// newly declared by cfg, marks services that dropped out of cfg as REMOVED,
// and refreshes logmonitor/address. It never touches an already-registered
// service's or host's rows (spec.md §3 invariant 1, §8 "no other rows
// changed"); technical-conf-version is left unset here and is only ever
// written by ApplyTechnical on a successful push (core/svcdriver/apply.go).
func (l *Loader) registerTechnicalServices(cfg *configschema.TechnicalConfig, version string) error {
	if err := l.markRemovedServices(cfg, version); err != nil {
		return err
	}

	kv := map[string]string{}
	for _, s := range cfg.AllServices() {
		if _, ok, err := l.DB.Get(dbkey.Service(s.ID, "service-type")); err != nil {
			return err
		} else if ok {
			continue
		}
		for field, def := range store.ServiceSubkeys {
			kv[dbkey.Service(s.ID, field)] = def
		}
		kv[dbkey.Service(s.ID, "service-type")] = s.Type
		kv[dbkey.Service(s.ID, "ip-address")] = s.Address
		kv[dbkey.Service(s.ID, "network")] = s.Network
		l.logEvent("SERVICE_REGISTER", s.ID, s.Type, "")
	}
	for _, h := range cfg.Hostnames() {
		if _, ok, err := l.DB.Get(dbkey.Host(h, "state")); err != nil {
			return err
		} else if ok {
			continue
		}
		kv[dbkey.Host(h, "state")] = ""
	}
	if len(kv) > 0 {
		if err := l.DB.SetMany(kv); err != nil {
			return err
		}
	}

	if cfg.LogMonitor != "" {
		if err := l.DB.Set("logmonitor/address", cfg.LogMonitor); err != nil {
			return err
		}
	}
	return nil
}

// markRemovedServices diffs the currently registered service ids against
// cfg's declared set and flips every service that dropped out to REMOVED
// (spec.md §3 invariant 1, §4.3). It intentionally does not reproduce the
// original's additional storage-removal list-reset cascade (resetting
// choices/districts/voters loading state when every storage service
// disappears at once) -- see DESIGN.md.
func (l *Loader) markRemovedServices(cfg *configschema.TechnicalConfig, version string) error {
	rows, err := l.DB.All("service/")
	if err != nil {
		return err
	}
	declared := map[string]bool{}
	for _, s := range cfg.AllServices() {
		declared[s.ID] = true
	}
	existing := map[string]bool{}
	for key := range rows {
		k := dbkey.Parse(key)
		if k.Field == "service-type" {
			existing[k.Name] = true
		}
	}
	kv := map[string]string{}
	for sid := range existing {
		if declared[sid] {
			continue
		}
		if rows[dbkey.Service(sid, "state")] == "REMOVED" {
			continue
		}
		kv[dbkey.Service(sid, "state")] = "REMOVED"
		kv[dbkey.Service(sid, "bg_info")] = "Service removed with technical config: " + version
		l.logEvent("SERVICE_REMOVE", sid, "", version)
	}
	if len(kv) == 0 {
		return nil
	}
	return l.DB.SetMany(kv)
}

// reconcileConditionalServiceKeys (re)computes the conditional service rows
// that depend on the currently loaded technical and election configs: TLS
// keypairs and backup schedules for every declared service (technical;
// backupTimes is the technical config's backup schedule, joined with
// spaces, and is ignored -- pass "" -- when called from an election reload),
// and the Mobile ID / TSP registration keys gated by election
// auth/qualification choices. It runs over every registered service on both
// technical and election reloads, mirroring the original's unconditional
// set_tech_cfg_service_cond_values/manage_db_mid_fields/manage_db_tsp_fields
// calls on either config type.
func (l *Loader) reconcileConditionalServiceKeys(backupTimes string) error {
	rows, err := l.DB.All("service/")
	if err != nil {
		return err
	}
	ticketAuth, err := l.electionAuthEnabled("ticket")
	if err != nil {
		return err
	}
	tspregOn, err := l.tspQualificationEnabled()
	if err != nil {
		return err
	}

	services := map[string]string{} // id -> service-type
	for key, v := range rows {
		k := dbkey.Parse(key)
		if k.Field == "service-type" {
			services[k.Name] = v
		}
	}

	for sid, typ := range services {
		params := condKeyServiceTypes[typ]
		if err := l.setCondValue(rows, sid, "tls-key", params.RequireTLS, ""); err != nil {
			return err
		}
		if err := l.setCondValue(rows, sid, "tls-cert", params.RequireTLS, ""); err != nil {
			return err
		}
		if err := l.setCondValue(rows, sid, "backup-times", typ == "backup", backupTimes); err != nil {
			return err
		}
		if err := l.setCondValue(rows, sid, "mid-token-key", ticketAuth && params.MobileID, ""); err != nil {
			return err
		}
		if err := l.setCondValue(rows, sid, "tspreg-key", tspregOn && params.Tspreg, ""); err != nil {
			return err
		}
	}
	return nil
}

// setCondValue creates key for service sid if want is true and it does not
// already exist (never overwriting a value loaded by secret-load), or
// removes it if want is false and it is present. rows is the service/*
// snapshot read at the start of the reconciliation pass.
func (l *Loader) setCondValue(rows map[string]string, sid, key string, want bool, value string) error {
	dbKey := dbkey.Service(sid, key)
	_, exists := rows[dbKey]
	switch {
	case want && !exists:
		rows[dbKey] = value
		return l.DB.Set(dbKey, value)
	case !want && exists:
		delete(rows, dbKey)
		return l.DB.Delete(dbKey)
	}
	return nil
}

// electionAuthEnabled reports whether method is one of the authentication
// methods currently registered under election/auth/<method>.
func (l *Loader) electionAuthEnabled(method string) (bool, error) {
	v, ok, err := l.DB.Get("election/auth/" + method)
	if err != nil || !ok {
		return false, err
	}
	return v == "TRUE", nil
}

func (l *Loader) tspQualificationEnabled() (bool, error) {
	v, _, err := l.DB.Get(dbkey.Election("tsp-qualification"))
	return v == "TRUE", err
}

// reconcileElectionAuth rewrites election/auth/<method> to exactly the set
// of authentication methods election declares, and election/tsp-qualification
// to whether a tspreg qualification protocol is configured (spec.md §4.3,
// §4.6). Both keys in turn gate reconcileConditionalServiceKeys's
// mid-token-key/tspreg-key rows.
func (l *Loader) reconcileElectionAuth(election *configschema.ElectionConfig) error {
	existing, err := l.DB.All("election/auth/")
	if err != nil {
		return err
	}
	cfgMethods := map[string]bool{}
	if election.Auth.Ticket != nil {
		cfgMethods["ticket"] = true
	}
	if election.Auth.TLS != nil {
		cfgMethods["tls"] = true
	}
	for key := range existing {
		method := strings.TrimPrefix(key, "election/auth/")
		if !cfgMethods[method] {
			if err := l.DB.Delete(key); err != nil {
				return err
			}
		}
	}
	for method := range cfgMethods {
		if _, ok := existing["election/auth/"+method]; !ok {
			if err := l.DB.Set("election/auth/"+method, "TRUE"); err != nil {
				return err
			}
		}
	}

	tspreg := false
	for _, q := range election.Qualification {
		if q.Protocol == "tspreg" {
			tspreg = true
			break
		}
	}
	value := ""
	if tspreg {
		value = "TRUE"
	}
	return l.DB.Set(dbkey.Election("tsp-qualification"), value)
}
