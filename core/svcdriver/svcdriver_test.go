package svcdriver

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ivxv.ee/collector-admin/core/dbkey"
	"ivxv.ee/collector-admin/core/ivxverr"
	"ivxv.ee/collector-admin/core/remote"
	"ivxv.ee/collector-admin/core/store"
)

func newTestDriver(t *testing.T, sshBinary string) *Driver {
	t.Helper()
	log := zerolog.Nop()
	db := store.Open(filepath.Join(t.TempDir(), "ivxv-management.db"), &log)
	require.NoError(t, db.Reset())
	require.NoError(t, db.Set("service/v1/service-type", "voting"))
	require.NoError(t, db.Set("service/v1/state", "CONFIGURED"))
	return &Driver{
		DB:     db,
		Remote: &remote.T{SSHBinary: sshBinary, SCPBinary: "true"},
		Now:    func() time.Time { return time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC) },
	}
}

func TestPingFailureStillSetsLastData(t *testing.T) {
	d := newTestDriver(t, "true")
	svc := Service{ID: "v1", Type: "voting", Host: "10.0.0.1"}

	err := d.Ping(context.Background(), svc)
	// "true" prints nothing, so the JSON report parse fails, which is
	// recorded as a ping failure — this still exercises the last-data/
	// ping-errors bookkeeping path.
	require.Error(t, err)

	lastData, ok, gerr := d.DB.Get(dbkey.Service("v1", "last-data"))
	require.NoError(t, gerr)
	assert.True(t, ok)
	assert.Equal(t, "2024-10-01T10:00:00Z", lastData)
}

func TestPingThreeFailuresForceFailureState(t *testing.T) {
	d := newTestDriver(t, "false")
	svc := Service{ID: "v1", Type: "voting", Host: "10.0.0.1"}

	for i := 0; i < maxPingErrors; i++ {
		_ = d.Ping(context.Background(), svc)
	}

	state, _, err := d.DB.Get(dbkey.Service("v1", "state"))
	require.NoError(t, err)
	assert.Equal(t, "FAILURE", state)
}

func TestApplyElectionRequiresTechnicalFirst(t *testing.T) {
	d := newTestDriver(t, "true")
	svc := Service{ID: "v1", Type: "voting", Host: "10.0.0.1"}
	err := d.ApplyElection(context.Background(), svc, "A 2024-10-01T08:00:00Z", "/tmp/election.bdoc")
	assert.True(t, ivxverr.IsValidation(err))
}

func TestApplyListRequiresConfigured(t *testing.T) {
	d := newTestDriver(t, "true")
	require.NoError(t, d.DB.Set("service/v1/state", "INSTALLED"))
	svc := Service{ID: "v1", Type: "voting", Host: "10.0.0.1"}
	err := d.ApplyList(context.Background(), svc, "choices", -1, "/tmp/choices.list")
	assert.True(t, ivxverr.IsValidation(err))
}
