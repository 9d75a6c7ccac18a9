package permissions

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithNoMarkerFilesReportsNone(t *testing.T) {
	dir := t.TempDir()
	u := Resolve(dir, "SMITH,JOHN,39001011234")
	assert.Equal(t, []string{"none"}, u.Roles)
	assert.Empty(t, u.Permissions)
	assert.Equal(t, "John Smith", u.UserName)
}

func TestResolveGrantedRoleAccumulatesPermissions(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Grant(dir, "SMITH,JOHN,39001011234", "viewer"))

	u := Resolve(dir, "SMITH,JOHN,39001011234")
	assert.Equal(t, []string{"viewer"}, u.Roles)
	assert.True(t, u.Has(PermissionStatsView))
	assert.False(t, u.Has(PermissionUsersAdmin))
}

func TestRevokeRemovesAllMarkers(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, Grant(dir, "SMITH,JOHN,39001011234", "admin"))
	require.NoError(t, Revoke(dir, "SMITH,JOHN,39001011234"))

	u := Resolve(dir, "SMITH,JOHN,39001011234")
	assert.Equal(t, []string{"none"}, u.Roles)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
