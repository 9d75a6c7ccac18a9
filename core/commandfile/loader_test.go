package commandfile

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"ivxv.ee/collector-admin/core/store"
)

// fakeVerifier writes a Go-free shell script that prints one signature line
// and installs it as VerifierBinary for the duration of the test.
func fakeVerifier(t *testing.T, signer, timestamp string) {
	t.Helper()
	script := filepath.Join(t.TempDir(), "ivxv-verify-container")
	content := fmt.Sprintf("#!/bin/sh\necho '%s %s'\n", signer, timestamp)
	require.NoError(t, os.WriteFile(script, []byte(content), 0o755))
	prev := VerifierBinary
	VerifierBinary = script
	t.Cleanup(func() { VerifierBinary = prev })
}

func newTestLoader(t *testing.T) (*Loader, *store.T) {
	t.Helper()
	dir := t.TempDir()
	logger := zerolog.Nop()
	db := store.Open(filepath.Join(dir, "db", "ivxv-management.db"), &logger)
	require.NoError(t, db.Reset())

	commandsDir := filepath.Join(dir, "commands")
	activeDir := filepath.Join(dir, "active")
	adminUIData := filepath.Join(dir, "admin-ui-data")
	for _, d := range []string{commandsDir, activeDir, adminUIData} {
		require.NoError(t, os.MkdirAll(d, 0o750))
	}
	return &Loader{
		DB:          db,
		CommandsDir: commandsDir,
		ActiveDir:   activeDir,
		AdminUIData: adminUIData,
		Log:         &logger,
	}, db
}

func buildTrustContainer(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trust.bdoc")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	w, err := zw.Create("trust.yaml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`
container:
  bdoc:
    bdocsize: 1
    filesize: 1
    roots: [cert]
    profile: BES
authorizations:
  - SMITH,JOHN,39001011234
`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func TestLoaderLoadsTrust(t *testing.T) {
	loader, db := newTestLoader(t)
	fakeVerifier(t, "SMITH,JOHN,39001011234", "2024-10-01T08:00:00Z")

	path := buildTrustContainer(t)
	result, err := loader.Load(context.Background(), TypeTrust, path, false, false)
	require.NoError(t, err)
	require.Contains(t, result.Version, "SMITH,JOHN,39001011234")

	trustVersion, ok, err := db.Get("config/trust")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, result.Version, trustVersion)

	roles, ok, err := db.Get("user/SMITH,JOHN,39001011234")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "admin", roles)
}

func TestLoaderRejectsUnauthorizedSigner(t *testing.T) {
	loader, _ := newTestLoader(t)
	fakeVerifier(t, "MALLORY,EVE,39001011299", "2024-10-01T08:00:00Z")

	path := buildTrustContainer(t)
	_, err := loader.Load(context.Background(), TypeTrust, path, false, false)
	require.Error(t, err)
}

func TestLoaderRejectsTechnicalBeforeTrust(t *testing.T) {
	loader, _ := newTestLoader(t)
	_, err := loader.Load(context.Background(), TypeTechnical, "/nonexistent", false, false)
	require.Error(t, err)
}
