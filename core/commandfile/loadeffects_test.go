package commandfile

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ivxv.ee/collector-admin/core/configschema"
)

func technicalFixture(votingAddr, backupAddr string) *configschema.TechnicalConfig {
	cfg := &configschema.TechnicalConfig{
		SNIDomain: "example.ee",
		Network: []configschema.NetworkSegment{{
			ID: "seg0",
			Services: configschema.Services{
				Voting: []configschema.ServiceEntry{{ID: "voting0", Address: votingAddr}},
				Backup: []configschema.BackupServiceEntry{{ID: "backup0", Address: backupAddr}},
			},
		}},
		BackupTime: []string{"03:00"},
		LogMonitor: "logmon.example.ee:12345",
	}
	return cfg
}

// electionFixture builds a minimal valid ElectionConfig through
// configschema.ParseElection (rather than a struct literal) since the
// auth/qualification variant types are unexported outside configschema.
func electionFixture(t *testing.T, ticket bool, tspreg bool) *configschema.ElectionConfig {
	t.Helper()
	yaml := `
identifier: EP2024
questions:
  - Q1
period:
  servicestart: 2024-01-01T00:00:00Z
  electionstart: 2024-01-02T00:00:00Z
  electionstop: 2024-01-03T00:00:00Z
  servicestop: 2024-01-04T00:00:00Z
voterlist:
  key: somekey
identity: commonname
`
	if ticket {
		yaml += "auth:\n  ticket: {}\n"
	}
	if tspreg {
		yaml += "qualification:\n  - protocol: tspreg\n    conf:\n      url: https://tsp.example.ee\n      signers: [signer1]\n"
	}
	cfg, err := configschema.ParseElection([]byte(yaml))
	require.NoError(t, err)
	return cfg
}

func TestRegisterTechnicalServicesLeavesTechnicalConfVersionEmpty(t *testing.T) {
	loader, db := newTestLoader(t)
	cfg := technicalFixture("voting.example.ee:80", "backup.example.ee:80")

	require.NoError(t, loader.applyDatabaseEffects(TypeTechnical, cfg, "v1", 0))

	v, ok, err := db.Get("service/voting0/technical-conf-version")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, v, "technical-conf-version must stay empty until ApplyTechnical succeeds")
}

func TestRegisterTechnicalServicesSkipsAlreadyRegistered(t *testing.T) {
	loader, db := newTestLoader(t)
	cfg := technicalFixture("voting.example.ee:80", "backup.example.ee:80")
	require.NoError(t, loader.applyDatabaseEffects(TypeTechnical, cfg, "v1", 0))

	require.NoError(t, db.Set("service/voting0/state", "CONFIGURED"))
	require.NoError(t, db.Set("service/voting0/ping-errors", "7"))

	require.NoError(t, loader.applyDatabaseEffects(TypeTechnical, cfg, "v2", 0))

	state, _, err := db.Get("service/voting0/state")
	require.NoError(t, err)
	require.Equal(t, "CONFIGURED", state, "reload must not reset an already-registered service's state")

	pingErrors, _, err := db.Get("service/voting0/ping-errors")
	require.NoError(t, err)
	require.Equal(t, "7", pingErrors)
}

func TestRegisterTechnicalServicesMarksVanishedServicesRemoved(t *testing.T) {
	loader, db := newTestLoader(t)
	cfg := technicalFixture("voting.example.ee:80", "backup.example.ee:80")
	require.NoError(t, loader.applyDatabaseEffects(TypeTechnical, cfg, "v1", 0))

	slimCfg := technicalFixture("voting.example.ee:80", "backup.example.ee:80")
	slimCfg.Network[0].Services.Backup = nil

	require.NoError(t, loader.applyDatabaseEffects(TypeTechnical, slimCfg, "v2", 0))

	state, ok, err := db.Get("service/backup0/state")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "REMOVED", state)

	votingState, _, err := db.Get("service/voting0/state")
	require.NoError(t, err)
	require.NotEqual(t, "REMOVED", votingState)
}

func TestRegisterTechnicalServicesConditionalKeys(t *testing.T) {
	loader, db := newTestLoader(t)
	cfg := technicalFixture("voting.example.ee:80", "backup.example.ee:80")
	require.NoError(t, loader.applyDatabaseEffects(TypeTechnical, cfg, "v1", 0))

	for _, key := range []string{"service/voting0/tls-key", "service/voting0/tls-cert"} {
		_, ok, err := db.Get(key)
		require.NoError(t, err)
		require.True(t, ok, "%s should be created for a require-tls service type", key)
	}
	backupTimes, ok, err := db.Get("service/backup0/backup-times")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "03:00", backupTimes)

	addr, ok, err := db.Get("logmonitor/address")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "logmon.example.ee:12345", addr)
}

func TestElectionLoadReconcilesAuthAndConditionalKeys(t *testing.T) {
	loader, db := newTestLoader(t)
	technical := technicalFixture("voting.example.ee:80", "backup.example.ee:80")
	require.NoError(t, loader.applyDatabaseEffects(TypeTechnical, technical, "v1", 0))

	require.NoError(t, loader.applyDatabaseEffects(TypeElection, electionFixture(t, true, true), "e1", 0))

	auth, ok, err := db.Get("election/auth/ticket")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "TRUE", auth)

	tsp, _, err := db.Get("election/tsp-qualification")
	require.NoError(t, err)
	require.Equal(t, "TRUE", tsp)

	midKey, ok, err := db.Get("service/voting0/mid-token-key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, midKey)

	tspregKey, ok, err := db.Get("service/voting0/tspreg-key")
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, tspregKey)

	// Reloading without ticket auth or tspreg qualification must remove both.
	require.NoError(t, loader.applyDatabaseEffects(TypeElection, electionFixture(t, false, false), "e2", 0))

	_, ok, err = db.Get("election/auth/ticket")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = db.Get("service/voting0/mid-token-key")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = db.Get("service/voting0/tspreg-key")
	require.NoError(t, err)
	require.False(t, ok)
}
