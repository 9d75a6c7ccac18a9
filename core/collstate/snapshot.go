package collstate

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
)

// StorageState is the deb-package and command-history summary block of a
// snapshot, ported from the original's generate_collector_state "storage"
// block.
type StorageState struct {
	DebsExists           []string
	DebsMissing          []string
	CommandFiles         []string
	CommandFilesApplied  []string
	CommandFilesPending  []string
}

// ElectionState is the election block of a snapshot: the four raw
// timestamps plus the derived phase.
type ElectionState struct {
	ElectionID    string
	Period        ElectionPeriod
	Phase         string
	PhaseStart    *time.Time
	PhaseEnd      *time.Time
}

// Snapshot is the full operator-facing collector status document (spec.md
// §4.4), which the agent loop writes to status.json.
type Snapshot struct {
	CollectorState string
	Services       []ServiceRow
	Network        map[string][]ServiceRow
	Storage        StorageState
	Election       ElectionState
	VotersLoaded   int
	VotersPending  int
	VotersInvalid  int
}

// Generate assembles a full Snapshot from a flat database row set plus the
// two directories it cross-references on disk, the Go equivalent of the
// original's generate_collector_state.
func Generate(now time.Time, rows map[string]string, commandsDir, debPkgDir string) (*Snapshot, error) {
	services := ServiceRowsFromRows(rows)

	technicalLoaded := rows["config/technical"] != ""
	snap := &Snapshot{
		Services: services,
		Network:  ByNetwork(services),
	}
	snap.CollectorState = DetectCollectorState(rows["collector/state"], technicalLoaded, services)

	storage, err := buildStorageState(commandsDir, debPkgDir)
	if err != nil {
		return nil, err
	}
	snap.Storage = *storage

	snap.Election = buildElectionState(now, rows)

	states := voterListStates(rows)
	snap.VotersLoaded, snap.VotersPending, snap.VotersInvalid = VoterListCounts(states)

	return snap, nil
}

func buildStorageState(commandsDir, debPkgDir string) (*StorageState, error) {
	s := &StorageState{}
	for _, pkg := range DebPkgFilenames {
		matches, err := filepath.Glob(filepath.Join(debPkgDir, pkg+"_*.deb"))
		if err != nil {
			return nil, err
		}
		if len(matches) > 0 {
			s.DebsExists = append(s.DebsExists, matches[0])
		} else {
			s.DebsMissing = append(s.DebsMissing, pkg)
		}
	}

	entries, err := os.ReadDir(commandsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) == ".json" {
			continue
		}
		path := filepath.Join(commandsDir, e.Name())
		s.CommandFiles = append(s.CommandFiles, path)

		progressPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
		progress, err := commandfile.ReadProgress(progressPath)
		if err != nil || progress.Completed {
			s.CommandFilesApplied = append(s.CommandFilesApplied, path)
		} else {
			s.CommandFilesPending = append(s.CommandFilesPending, path)
		}
	}
	return s, nil
}

func buildElectionState(now time.Time, rows map[string]string) ElectionState {
	parse := func(field string) *time.Time {
		v := rows[dbkey.Election(field)]
		if v == "" {
			return nil
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil
		}
		return &t
	}
	period := ElectionPeriod{
		ServiceStart:  parse("servicestart"),
		ElectionStart: parse("electionstart"),
		ElectionStop:  parse("electionstop"),
		ServiceStop:   parse("servicestop"),
	}
	phase := DerivePhase(now, period)
	return ElectionState{
		ElectionID: rows[dbkey.Election("election-id")],
		Period:     period,
		Phase:      phase.Name,
		PhaseStart: phase.Start,
		PhaseEnd:   phase.End,
	}
}

func voterListStates(rows map[string]string) map[int]string {
	out := map[int]string{}
	for k, v := range rows {
		if !strings.HasPrefix(k, "list/voters") || !strings.HasSuffix(k, "-state") {
			continue
		}
		numPart := strings.TrimSuffix(strings.TrimPrefix(k, "list/voters"), "-state")
		n, err := strconv.Atoi(numPart)
		if err != nil {
			continue
		}
		out[n] = v
	}
	return out
}
