package ballotbox

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWritesFilenameAndLog(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{
		Dir:    dir,
		Binary: "true",
		Now:    func() time.Time { return time.Date(2024, 10, 1, 8, 0, 0, 0, time.UTC) },
	}
	filename, err := e.Start()
	require.NoError(t, err)
	assert.Equal(t, "exported-votes-2024.10.01_08.00.zip", filename)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(e.pidPath()); os.IsNotExist(err) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	_, err = os.Stat(filepath.Join(dir, filename+".log"))
	assert.NoError(t, err)
}

func TestStateWithNoJobReportsEmpty(t *testing.T) {
	e := &Exporter{Dir: t.TempDir(), Binary: "true"}
	state, err := e.State()
	require.NoError(t, err)
	assert.False(t, state.Running)
	assert.Empty(t, state.Filename)
}
