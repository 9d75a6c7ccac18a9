package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *T {
	t.Helper()
	log := zerolog.Nop()
	return Open(filepath.Join(t.TempDir(), "ivxv-management.db"), &log)
}

func TestResetWritesDefaults(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Reset())

	v, ok, err := s.Get("collector/state")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "NOT_INSTALLED", v)
}

func TestSetRejectsUnknownKey(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Reset())
	err := s.Set("bogus/nonsense", "x")
	var bad *BadKeyOrValue
	assert.ErrorAs(t, err, &bad)
}

func TestSetValidatesServiceState(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Reset())
	require.NoError(t, s.Set("service/v1/state", "CONFIGURED"))
	err := s.Set("service/v1/state", "BOGUS")
	assert.Error(t, err)
}

func TestSetSafeSkipsWhenKeyRemoved(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Reset())
	require.NoError(t, s.Set("service/v1/state", "INSTALLED"))
	require.NoError(t, s.Delete("service/v1/state"))

	require.NoError(t, s.Set("service/v1/state", "CONFIGURED", WithSafe()))
	_, ok, err := s.Get("service/v1/state")
	require.NoError(t, err)
	assert.False(t, ok, "safe set must not resurrect a concurrently removed key")
}

func TestResetIsAtomic(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Reset())
	require.NoError(t, s.Set("user/SMITH,JOHN,39001011234", "admin"))
	require.NoError(t, s.Reset())

	_, ok, err := s.Get("user/SMITH,JOHN,39001011234")
	require.NoError(t, err)
	assert.False(t, ok, "reset must clear previously written keys")
}

func TestAllFiltersByPrefix(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Reset())
	require.NoError(t, s.Set("service/v1/state", "INSTALLED"))
	require.NoError(t, s.Set("service/v1/service-type", "voting"))
	require.NoError(t, s.Set("host/h1/state", "REGISTERED"))

	all, err := s.All("service/v1")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, "INSTALLED", all["service/v1/state"])
}
