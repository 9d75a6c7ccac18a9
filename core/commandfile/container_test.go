package commandfile

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildZip(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "container.bdoc")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return path
}

func TestExtractPayloadTechnical(t *testing.T) {
	path := buildZip(t, map[string]string{
		"mimetype":                  "application/vnd.etsi.asic-e+zip",
		"META-INF/manifest.xml":     "<xml/>",
		"collector.technical.yaml":  "snidomain: example.ee\n",
	})
	name, content, err := ExtractPayload(TypeTechnical, path)
	require.NoError(t, err)
	assert.Equal(t, "collector.technical.yaml", name)
	assert.Contains(t, string(content), "snidomain")
}

func TestExtractPayloadVotersUtfSig(t *testing.T) {
	path := buildZip(t, map[string]string{
		"voters.utf": "2\nEP2024\n0\n",
		"voters.sig": "signature bytes",
	})
	name, _, err := ExtractPayload(TypeVoters, path)
	require.NoError(t, err)
	assert.Equal(t, "voters.utf", name)
}

func TestExtractPayloadVotersMismatchedNames(t *testing.T) {
	path := buildZip(t, map[string]string{
		"voters.utf":  "2\nEP2024\n0\n",
		"other.sig":   "signature bytes",
	})
	_, _, err := ExtractPayload(TypeVoters, path)
	assert.Error(t, err)
}

func TestExtractPayloadChoicesTooManyFiles(t *testing.T) {
	path := buildZip(t, map[string]string{
		"a.json": "{}",
		"b.json": "{}",
	})
	_, _, err := ExtractPayload(TypeChoices, path)
	assert.Error(t, err)
}

func TestExtractPayloadMissingExpectedFile(t *testing.T) {
	path := buildZip(t, map[string]string{
		"unrelated.txt": "nope",
	})
	_, _, err := ExtractPayload(TypeTrust, path)
	assert.Error(t, err)
}
