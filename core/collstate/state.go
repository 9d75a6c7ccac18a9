package collstate

import (
	"sort"
	"time"

	"ivxv.ee/collector-admin/core/dbkey"
)

// ServiceRow is one service/<sid>/* record, assembled from the flat
// database rows into a typed shape for state derivation.
type ServiceRow struct {
	ID                   string
	ServiceType          string
	IPAddress            string
	Network              string
	State                string
	TechnicalConfVersion string
	ElectionConfVersion  string
	LastData             string
	PingErrors           int
	TLSKey               bool
	TLSCert              bool
	MobileIDTokenKey     bool
	TspregKey            bool
	BgInfo               string
}

// ServiceRowsFromRows assembles ServiceRow values from a flat
// service/<sid>/<field> row snapshot (e.g. store.All("service/")), computing
// each row's bg_info as the last step, matching the original's ordering
// (hints are generated after all fields are known).
func ServiceRowsFromRows(rows map[string]string) []ServiceRow {
	bySID := map[string]*ServiceRow{}
	for k, v := range rows {
		key := dbkey.Parse(k)
		if key.Section != "service" {
			continue
		}
		row, ok := bySID[key.Name]
		if !ok {
			row = &ServiceRow{ID: key.Name}
			bySID[key.Name] = row
		}
		switch key.Field {
		case "service-type":
			row.ServiceType = v
		case "ip-address":
			row.IPAddress = v
		case "network":
			row.Network = v
		case "state":
			row.State = v
		case "technical-conf-version":
			row.TechnicalConfVersion = v
		case "election-conf-version":
			row.ElectionConfVersion = v
		case "last-data":
			row.LastData = v
		case "ping-errors":
			row.PingErrors = atoiOr0(v)
		case "tls-key":
			row.TLSKey = v != ""
		case "tls-cert":
			row.TLSCert = v != ""
		case "mid-token-key":
			row.MobileIDTokenKey = v != ""
		case "tspreg-key":
			row.TspregKey = v != ""
		}
	}

	ids := make([]string, 0, len(bySID))
	for id := range bySID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]ServiceRow, 0, len(ids))
	for _, id := range ids {
		row := *bySID[id]
		row.BgInfo = BgInfo(row)
		out = append(out, row)
	}
	return out
}

func atoiOr0(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}

// ByNetwork groups rows by their declared network segment.
func ByNetwork(rows []ServiceRow) map[string][]ServiceRow {
	out := map[string][]ServiceRow{}
	for _, r := range rows {
		out[r.Network] = append(out[r.Network], r)
	}
	return out
}

// DetectCollectorState derives collector/state, ported from the original's
// detect_collector_state. collectorState is the database's current
// collector/state row. NOT_INSTALLED and INSTALLED are kept while their
// conditions hold and are never returned once left; past them the result
// is CONFIGURED, FAILURE or PARTIAL_FAILURE from the current service
// states, so FAILURE can return to CONFIGURED.
func DetectCollectorState(collectorState string, technicalLoaded bool, services []ServiceRow) string {
	stateCounts := map[string]int{}
	for _, s := range services {
		stateCounts[s.State]++
	}

	if collectorState == "NOT_INSTALLED" &&
		(!technicalLoaded || len(services) == 0 || stateCounts["NOT_INSTALLED"] > 0) {
		return "NOT_INSTALLED"
	}

	if collectorState == "INSTALLED" && stateCounts["INSTALLED"] > 0 {
		return "INSTALLED"
	}

	if stateCounts["FAILURE"] == 0 {
		return "CONFIGURED"
	}

	byType := map[string][]string{}
	for _, s := range services {
		byType[s.ServiceType] = append(byType[s.ServiceType], s.State)
	}

	for typ, params := range ServiceTypeParams {
		if !params.MainService {
			continue
		}
		states, ok := byType[typ]
		if !ok {
			continue
		}
		if !contains(states, "CONFIGURED") {
			return "FAILURE"
		}
	}

	return "PARTIAL_FAILURE"
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

// ElectionPeriod names the four election timestamps read from the database.
type ElectionPeriod struct {
	ServiceStart  *time.Time
	ElectionStart *time.Time
	ElectionStop  *time.Time
	ServiceStop   *time.Time
}

// ElectionPhase is a derived phase with its start/end boundary, ported from
// the original's generate_election_state.
type ElectionPhase struct {
	Name  string
	Start *time.Time
	End   *time.Time
}

// DerivePhase computes the current election phase from the four period
// timestamps and the wall clock, in the fixed priority order of spec.md §4.4:
// PREPARING, WAITING FOR SERVICE START, WAITING FOR ELECTION START, ELECTION,
// WAITING FOR SERVICE STOP, FINISHED.
func DerivePhase(now time.Time, p ElectionPeriod) ElectionPhase {
	switch {
	case p.ElectionStart == nil:
		return ElectionPhase{Name: "PREPARING"}
	case p.ServiceStart != nil && now.Before(*p.ServiceStart):
		return ElectionPhase{Name: "WAITING FOR SERVICE START", End: p.ServiceStart}
	case now.Before(*p.ElectionStart):
		return ElectionPhase{Name: "WAITING FOR ELECTION START", Start: p.ServiceStart, End: p.ElectionStart}
	case p.ElectionStop != nil && now.Before(*p.ElectionStop):
		return ElectionPhase{Name: "ELECTION", Start: p.ElectionStart, End: p.ElectionStop}
	case p.ServiceStop != nil && now.Before(*p.ServiceStop):
		return ElectionPhase{Name: "WAITING FOR SERVICE STOP", Start: p.ElectionStop, End: p.ServiceStop}
	default:
		return ElectionPhase{Name: "FINISHED", Start: p.ServiceStop}
	}
}

// VoterListCounts tallies registered voter-list changesets by their state,
// ported from the original's generate_voters_list_state.
func VoterListCounts(states map[int]string) (loaded, pending, invalid int) {
	for _, state := range states {
		switch state {
		case "APPLIED", "SKIPPED":
			loaded++
		case "PENDING":
			pending++
		case "INVALID":
			invalid++
		}
	}
	return
}
