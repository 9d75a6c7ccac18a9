package store

// The default row set and the per-section key whitelists, ported key for
// key from the original collector-admin/ivxv_admin/db.py DB_KEYS /
// DB_HOST_SUBKEYS / DB_SERVICE_SUBKEYS / DB_SERVICE_CONDITIONAL_SUBKEYS
// tables (see SPEC_FULL.md "Supplemented detail").

// CollectorStates enumerates collector/state's allowed values (spec.md §3).
var CollectorStates = []string{
	"NOT_INSTALLED", "INSTALLED", "CONFIGURED", "FAILURE", "PARTIAL_FAILURE",
}

// ServiceStates enumerates service/<sid>/state's allowed values.
var ServiceStates = []string{
	"NOT_INSTALLED", "INSTALLED", "CONFIGURED", "FAILURE", "REMOVED",
}

// ServiceTypes is the closed set from spec.md §8.
var ServiceTypes = []string{
	"backup", "choices", "log", "mid", "smartid", "votesorder", "proxy",
	"storage", "verification", "voting",
}

// VoterListStates enumerates list/voters<NNNN>-state's allowed values.
var VoterListStates = []string{"PENDING", "APPLIED", "INVALID", "SKIPPED"}

// DefaultKeys is the top-level default row set written by Reset.
var DefaultKeys = map[string]string{
	"collector/state":   "NOT_INSTALLED",
	"config/election":   "",
	"config/technical":  "",
	"config/trust":      "",
	"list/choices":      "",
	"list/choices-loaded":  "",
	"list/districts":       "",
	"list/districts-loaded": "",
	"election/election-id":  "",
	"election/electionstart": "",
	"election/electionstop":  "",
	"election/servicestart":  "",
	"election/servicestop":   "",
	"election/tsp-qualification": "",
	"logmonitor/address":   "",
	"logmonitor/last-data": "",
}

// HostSubkeys is the set of allowed host/<hostname>/<field> fields.
var HostSubkeys = map[string]bool{
	"state": true,
}

// ServiceSubkeys is the set of unconditional service/<sid>/<field> fields,
// with their zero value.
var ServiceSubkeys = map[string]string{
	"service-type":            "",
	"ip-address":              "",
	"network":                 "",
	"state":                   "NOT_INSTALLED",
	"technical-conf-version":  "",
	"election-conf-version":   "",
	"last-data":               "",
	"ping-errors":             "0",
	"bg_info":                 "",
}

// ServiceConditionalSubkeys is the set of fields created only when applicable
// to a given service's type and configuration (spec.md §3).
var ServiceConditionalSubkeys = map[string]bool{
	"tls-key":        true,
	"tls-cert":       true,
	"mid-token-key":  true,
	"tspreg-key":     true,
	"backup-times":   true,
}

// AllowedServiceKeys is the union consulted by key validation.
func AllowedServiceKeys() map[string]bool {
	allowed := map[string]bool{}
	for k := range ServiceSubkeys {
		allowed[k] = true
	}
	for k := range ServiceConditionalSubkeys {
		allowed[k] = true
	}
	return allowed
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
