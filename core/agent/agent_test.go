package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/store"
)

func newTestAgent(t *testing.T) (*Agent, string) {
	t.Helper()
	dir := t.TempDir()
	commandsDir := filepath.Join(dir, "commands")
	activeDir := filepath.Join(dir, "active")
	require.NoError(t, os.MkdirAll(commandsDir, 0o750))
	require.NoError(t, os.MkdirAll(activeDir, 0o750))

	log := zerolog.Nop()
	db := store.Open(filepath.Join(dir, "db.json"), &log)
	require.NoError(t, db.Reset())

	return &Agent{
		DB:          db,
		CommandsDir: commandsDir,
		ActiveDir:   activeDir,
		Log:         &log,
	}, dir
}

// registerPendingTechnical sets up a technical command registered in the
// database with a not-yet-completed, autoapply-eligible progress file, the
// way commandfile.Loader.Load leaves things for the agent to pick up.
func registerPendingTechnical(t *testing.T, a *Agent) {
	t.Helper()
	version := "SMITH,JOHN,39001011234 2024-10-01T08:00:00Z"
	require.NoError(t, a.DB.Set(dbkey.Config("technical"), version))

	historyPath := filepath.Join(a.CommandsDir, "technical-2024-10-01T08:00:00Z.bdoc")
	require.NoError(t, os.WriteFile(historyPath, []byte("dummy"), 0o640))

	activePath := commandfile.ActivePath(a.ActiveDir, commandfile.TypeTechnical, 0)
	require.NoError(t, os.Symlink(historyPath, activePath))

	progressPath := filepath.Join(a.CommandsDir, "technical-2024-10-01T08:00:00Z.json")
	p := commandfile.NewProgress("collectors technical configuration", "technical.bdoc", version, true)
	require.NoError(t, commandfile.WriteProgress(progressPath, p))
}

func TestNextApplicablePicksPendingTechnical(t *testing.T) {
	a, _ := newTestAgent(t)
	registerPendingTechnical(t, a)

	target, ok, err := a.nextApplicable()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "technical", target.cfgType)
}

func TestNextApplicableSkipsCompleted(t *testing.T) {
	a, _ := newTestAgent(t)
	registerPendingTechnical(t, a)

	historyPath := filepath.Join(a.CommandsDir, "technical-2024-10-01T08:00:00Z.bdoc")
	progressPath := filepath.Join(a.CommandsDir, "technical-2024-10-01T08:00:00Z.json")
	p, err := commandfile.ReadProgress(progressPath)
	require.NoError(t, err)
	p.Completed = true
	require.NoError(t, commandfile.WriteProgress(progressPath, p))
	_ = historyPath

	_, ok, err := a.nextApplicable()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNextApplicableSkipsAfterMaxAttempts(t *testing.T) {
	a, _ := newTestAgent(t)
	registerPendingTechnical(t, a)

	progressPath := filepath.Join(a.CommandsDir, "technical-2024-10-01T08:00:00Z.json")
	p, err := commandfile.ReadProgress(progressPath)
	require.NoError(t, err)
	p.Attempts = maxAttempts
	require.NoError(t, commandfile.WriteProgress(progressPath, p))

	_, ok, err := a.nextApplicable()
	require.NoError(t, err)
	require.False(t, ok)
}
