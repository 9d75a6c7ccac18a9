package remote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSSH_NonZeroExit exercises the "exit code is a value, not an error"
// contract of spec.md §4.5 by pointing SSHBinary at /usr/bin/false.
func TestSSH_NonZeroExit(t *testing.T) {
	rt := &T{SSHBinary: "false", SCPBinary: "true"}
	res, err := rt.SSH(context.Background(), "host1", "ivxv", []string{"echo", "hi"}, nil, true, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Exit)
}

func TestSSH_Success(t *testing.T) {
	rt := &T{SSHBinary: "true", SCPBinary: "true"}
	res, err := rt.SSH(context.Background(), "host1", "ivxv", []string{"echo", "hi"}, nil, true, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exit)
}

func TestSCP_Direction(t *testing.T) {
	rt := &T{SSHBinary: "true", SCPBinary: "true"}
	res, err := rt.SCP(context.Background(), "/tmp/local", "host1:/remote/path", "ivxv", Push)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Exit)
}
