package agent

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPidLockAcquireRelease(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.pid")
	l := &PidLock{Path: path}
	require.NoError(t, l.Acquire())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(b))

	require.NoError(t, l.Release())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestPidLockRejectsLiveHolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.pid")
	l1 := &PidLock{Path: path}
	require.NoError(t, l1.Acquire())

	l2 := &PidLock{Path: path}
	err := l2.Acquire()
	assert.Error(t, err)
}

func TestPidLockReapsGarbledContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o640))

	l := &PidLock{Path: path}
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
}

func TestPidLockReapsStaleDeadPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.pid")
	// PID 999999 is vanishingly unlikely to be alive in any test sandbox.
	require.NoError(t, os.WriteFile(path, []byte("999999"), 0o640))

	l := &PidLock{Path: path}
	require.NoError(t, l.Acquire())
	require.NoError(t, l.Release())
}
