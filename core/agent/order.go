package agent

import (
	"sort"

	"ivxv.ee/collector-admin/core/collstate"
)

// OrderServices sorts services for one apply run into the startup-dependency
// order of spec.md §5: log collectors first, then every other non-proxy
// type, then proxy last. Within a group, services are sorted by ID for
// determinism.
func OrderServices(services []collstate.ServiceRow) []collstate.ServiceRow {
	out := append([]collstate.ServiceRow(nil), services...)
	rank := func(typ string) int {
		switch typ {
		case "log":
			return 0
		case "proxy":
			return 2
		default:
			return 1
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := rank(out[i].ServiceType), rank(out[j].ServiceType)
		if ri != rj {
			return ri < rj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// OrderVoterChangesets returns the changeset numbers of pendingStates in
// ascending order, the only legal application order (spec.md §5, §4.6).
func OrderVoterChangesets(pendingStates map[int]string) []int {
	var out []int
	for n, state := range pendingStates {
		if state == "PENDING" {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// OrderCommandTypes is the fixed apply precedence of spec.md §4.7 step 4:
// technical, then election, then choices/districts, then voters (voter
// changesets themselves always ascending, handled by OrderVoterChangesets).
var OrderCommandTypes = []string{"technical", "election", "choices", "districts", "voters"}
