package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivxv.ee/collector-admin/core/eventlog"
	"ivxv.ee/collector-admin/core/store"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "permissions"), 0o750))

	log := zerolog.Nop()
	db := store.Open(filepath.Join(dir, "db.json"), &log)
	require.NoError(t, db.Reset())

	events := eventlog.Open(filepath.Join(dir, "events.log"))
	require.NoError(t, events.Init())

	statusPath := filepath.Join(dir, "status.json")
	require.NoError(t, os.WriteFile(statusPath, []byte(`{"CollectorState":"CONFIGURED","Election":{"ElectionID":"EP2024","Phase":"before"}}`), 0o640))

	return &Server{
		DB:             db,
		Events:         events,
		PermissionsDir: filepath.Join(dir, "permissions"),
		StatusPath:     statusPath,
		UploadDir:      dir,
		Log:            &log,
	}, dir
}

func TestContextWithoutRoleReportsNone(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/context.json", nil)
	req.Header.Set("X-Client-CN", "SMITH,JOHN,39001011234")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":["none"]`)
}

func TestContextWithAdminRoleIncludesCollectorState(t *testing.T) {
	s, dir := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "permissions", "SMITH,JOHN,39001011234-admin"), nil, 0o640))

	req := httptest.NewRequest(http.MethodGet, "/context.json", nil)
	req.Header.Set("X-Client-CN", "SMITH,JOHN,39001011234")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"collector":"CONFIGURED"`)
}

func TestEventlogReturnsRegisteredEvents(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/eventlog", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "COLLECTOR_INIT")
}

func TestNeverCacheHeadersSet(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/eventlog", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get("Expires"))
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestSkipVotersListWithNoPendingReportsMessage(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/skip-voters-list", nil)
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ootel")
}
