package agent

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
)

// CountStat is one flattened dict-to-list row: a key (district code,
// station id, ...) paired with its observed count.
type CountStat struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// NormalizeTopN flattens a raw key->count dict into a list sorted by count
// descending (ties broken by key), truncated to limit entries — the
// "flatten dicts to sorted top-10 or top-100 lists" step of spec.md §4.7.
func NormalizeTopN(counts map[string]int, limit int) []CountStat {
	out := make([]CountStat, 0, len(counts))
	for k, c := range counts {
		out = append(out, CountStat{Key: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// FillMissingDistricts appends a zero-count row for every known district
// code absent from stats, so the UI's per-district breakdown never has a
// silent hole (spec.md §4.7 "fill in district rows missing from stats").
func FillMissingDistricts(stats []CountStat, knownDistricts map[string]bool) []CountStat {
	seen := map[string]bool{}
	for _, s := range stats {
		seen[s.Key] = true
	}
	out := append([]CountStat(nil), stats...)
	missing := make([]string, 0)
	for id := range knownDistricts {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	sort.Strings(missing)
	for _, id := range missing {
		out = append(out, CountStat{Key: id, Count: 0})
	}
	return out
}

// Stats is the merged content of the admin-ui-data/stats.json snapshot.
type Stats struct {
	VotingSessionsByDistrict []CountStat `json:"voting_sessions_by_district"`
	VoterDetailByStation     []CountStat `json:"voter_detail_by_station"`
}

// WriteStats atomically replaces the stats.json snapshot.
func WriteStats(path string, s *Stats) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal stats")
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
		return errors.Wrapf(err, "rename %s", path)
	}
	return nil
}
