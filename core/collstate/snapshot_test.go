package collstate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivxv.ee/collector-admin/core/commandfile"
)

func TestGenerateSnapshot(t *testing.T) {
	dir := t.TempDir()
	commandsDir := filepath.Join(dir, "commands")
	debPkgDir := filepath.Join(dir, "deb-pkg")
	require.NoError(t, os.MkdirAll(commandsDir, 0o750))
	require.NoError(t, os.MkdirAll(debPkgDir, 0o750))

	require.NoError(t, os.WriteFile(filepath.Join(debPkgDir, "ivxv-admin_1.8.2_amd64.deb"), []byte("x"), 0o640))

	require.NoError(t, os.WriteFile(filepath.Join(commandsDir, "technical-2024-10-01T08:00:00Z.bdoc"), []byte("x"), 0o640))
	progress := commandfile.NewProgress("collectors technical configuration", "technical.bdoc", "v1", true)
	progress.Completed = true
	require.NoError(t, commandfile.WriteProgress(filepath.Join(commandsDir, "technical-2024-10-01T08:00:00Z.json"), progress))

	rows := map[string]string{
		"collector/state":        "INSTALLED",
		"config/technical":       "v1",
		"election/election-id":   "EP2024",
		"election/servicestart":  "2024-10-01T08:00:00Z",
		"election/electionstart": "2024-10-01T09:00:00Z",
		"election/electionstop":  "2024-10-01T21:00:00Z",
		"election/servicestop":   "2024-10-01T22:00:00Z",
		"service/proxy01/service-type": "proxy",
		"service/proxy01/state":        "INSTALLED",
		"service/proxy01/network":      "seg1",
		"list/voters0000-state":        "APPLIED",
		"list/voters0001-state":        "PENDING",
	}

	now := mustParse("2024-10-01T10:00:00Z")
	snap, err := Generate(now, rows, commandsDir, debPkgDir)
	require.NoError(t, err)

	assert.Equal(t, "INSTALLED", snap.CollectorState)
	assert.Len(t, snap.Storage.DebsExists, 1)
	assert.NotEmpty(t, snap.Storage.DebsMissing)
	assert.Len(t, snap.Storage.CommandFilesApplied, 1)
	assert.Equal(t, "EP2024", snap.Election.ElectionID)
	assert.Equal(t, "ELECTION", snap.Election.Phase)
	assert.Equal(t, 1, snap.VotersLoaded)
	assert.Equal(t, 1, snap.VotersPending)
}
