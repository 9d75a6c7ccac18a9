package eventlog

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	log := Open(path)

	require.NoError(t, log.Info("CMD_LOAD", "", "technical", "2024-10-01T08:00:00"))
	require.NoError(t, log.Error("CMD_REMOVED", "voting", "technical", "2024-10-01T08:00:00"))

	events, err := log.Dump()
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, LevelInfo, events[0].Level)
	assert.Equal(t, "management", events[0].Service)
	assert.Contains(t, events[0].Message, "technical")
	assert.Equal(t, LevelError, events[1].Level)
	assert.Equal(t, "voting", events[1].Service)
}

func TestRegisterRejectsUnknownEvent(t *testing.T) {
	log := Open(filepath.Join(t.TempDir(), "events.log"))
	err := log.Register("NOT_A_REAL_EVENT", LevelInfo, "")
	assert.Error(t, err)
}

func TestInitTruncatesAndRecordsInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	log := Open(path)
	require.NoError(t, log.Info("CMD_LOAD", "", "technical", "v1"))
	require.NoError(t, log.Init())

	events, err := log.Dump()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "COLLECTOR_INIT", events[0].Event)
}
