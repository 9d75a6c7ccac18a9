package commandfile

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "technical-2024-10-01T08:00:00Z.json")
	p := NewProgress("collectors technical configuration", "technical.bdoc", "SMITH,JOHN,39001011234 2024-10-01T08:00:00Z", true)
	require.NoError(t, WriteProgress(path, p))

	got, err := ReadProgress(path)
	require.NoError(t, err)
	assert.Equal(t, p.ConfigType, got.ConfigType)
	assert.False(t, got.Completed)
	assert.Equal(t, 0, got.Attempts)

	calls := 0
	now := func() string { calls++; return "2024-10-01T08:05:00Z" }
	require.NoError(t, AppendLogAndSave(path, "applied to host1", now))
	got2, err := ReadProgress(path)
	require.NoError(t, err)
	require.Len(t, got2.Log, 1)
	assert.Equal(t, "applied to host1", got2.Log[0].Message)
	assert.Equal(t, 1, calls)
}
