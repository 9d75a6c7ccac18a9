package processorinput

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivxv.ee/collector-admin/core/commandfile"
	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/store"
)

func TestBuildIncludesDistrictsAndVoterLists(t *testing.T) {
	dir := t.TempDir()
	activeDir := filepath.Join(dir, "active")
	require.NoError(t, os.MkdirAll(activeDir, 0o750))

	districtsSrc := filepath.Join(dir, "districts.bdoc")
	require.NoError(t, os.WriteFile(districtsSrc, []byte("district-data"), 0o640))
	require.NoError(t, os.Symlink(districtsSrc, commandfile.ActivePath(activeDir, commandfile.TypeDistricts, 0)))

	votersSrc := filepath.Join(dir, "voters0000.bdoc")
	require.NoError(t, os.WriteFile(votersSrc, []byte("voter-data"), 0o640))
	require.NoError(t, os.Symlink(votersSrc, commandfile.ActivePath(activeDir, commandfile.TypeVoters, 0)))

	log := zerolog.Nop()
	db := store.Open(filepath.Join(dir, "db.json"), &log)
	require.NoError(t, db.Reset())
	require.NoError(t, db.SetMany(map[string]string{
		dbkey.Election("election-id"):    "EP2024",
		"list/districts":                 "SMITH,JOHN,39001011234 2024-10-01T08:00:00Z",
		dbkey.VoterList(0, ""):           "SMITH,JOHN,39001011234 2024-10-01T08:00:00Z",
		dbkey.VoterList(0, "state"):      "PENDING",
	}))

	b := &Builder{DB: db, ActiveDir: activeDir}
	var buf bytes.Buffer
	require.NoError(t, b.Build(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "districts.json")
	assert.Contains(t, names, "voters0000.bdoc")
	assert.Contains(t, names, "processor.yaml")
}

func TestBuildSkipsInvalidChangesets(t *testing.T) {
	dir := t.TempDir()
	activeDir := filepath.Join(dir, "active")
	require.NoError(t, os.MkdirAll(activeDir, 0o750))

	log := zerolog.Nop()
	db := store.Open(filepath.Join(dir, "db.json"), &log)
	require.NoError(t, db.Reset())
	require.NoError(t, db.SetMany(map[string]string{
		dbkey.VoterList(0, ""):      "SMITH,JOHN,39001011234 2024-10-01T08:00:00Z",
		dbkey.VoterList(0, "state"): "INVALID",
	}))

	b := &Builder{DB: db, ActiveDir: activeDir}
	var buf bytes.Buffer
	require.NoError(t, b.Build(&buf))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	for _, f := range zr.File {
		assert.NotEqual(t, "voters0000.bdoc", f.Name)
	}
}
