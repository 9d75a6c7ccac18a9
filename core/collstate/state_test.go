package collstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestServiceRowsFromRowsGroupsByID(t *testing.T) {
	rows := map[string]string{
		"service/proxy01/service-type":           "proxy",
		"service/proxy01/state":                  "CONFIGURED",
		"service/proxy01/network":                "seg1",
		"service/proxy01/technical-conf-version":  "v1",
		"service/proxy01/election-conf-version":   "v1",
		"service/choices01/service-type":          "choices",
		"service/choices01/state":                 "INSTALLED",
		"service/choices01/network":               "seg1",
	}
	services := ServiceRowsFromRows(rows)
	assert.Len(t, services, 2)
	assert.Equal(t, "choices01", services[0].ID)
	assert.Equal(t, "proxy01", services[1].ID)
}

func TestBgInfoAppliesTechnicalFirst(t *testing.T) {
	row := ServiceRow{ServiceType: "proxy", State: "INSTALLED"}
	assert.Equal(t, "Apply technical config", BgInfo(row))
}

func TestBgInfoRemovedHasNoHint(t *testing.T) {
	row := ServiceRow{ServiceType: "proxy", State: "REMOVED"}
	assert.Equal(t, "", BgInfo(row))
}

func TestBgInfoRequiresTLSBeforeElectionConfig(t *testing.T) {
	row := ServiceRow{
		ServiceType:          "voting",
		State:                "INSTALLED",
		TechnicalConfVersion: "v1",
	}
	assert.Equal(t, "Install service TLS key", BgInfo(row))
}

func TestDetectCollectorStateNotInstalled(t *testing.T) {
	state := DetectCollectorState("NOT_INSTALLED", false, nil)
	assert.Equal(t, "NOT_INSTALLED", state)
}

func TestDetectCollectorStateConfigured(t *testing.T) {
	services := []ServiceRow{
		{ServiceType: "proxy", State: "CONFIGURED"},
		{ServiceType: "voting", State: "CONFIGURED"},
	}
	state := DetectCollectorState("INSTALLED", true, services)
	assert.Equal(t, "CONFIGURED", state)
}

func TestDetectCollectorStateFailureOnMainService(t *testing.T) {
	services := []ServiceRow{
		{ServiceType: "proxy", State: "FAILURE"},
		{ServiceType: "log", State: "CONFIGURED"},
	}
	state := DetectCollectorState("INSTALLED", true, services)
	assert.Equal(t, "FAILURE", state)
}

func TestDetectCollectorStatePartialFailure(t *testing.T) {
	services := []ServiceRow{
		{ServiceType: "proxy", State: "CONFIGURED"},
		{ServiceType: "log", State: "FAILURE"},
	}
	state := DetectCollectorState("INSTALLED", true, services)
	assert.Equal(t, "PARTIAL_FAILURE", state)
}

func TestDerivePhasePreparing(t *testing.T) {
	phase := DerivePhase(time.Now(), ElectionPeriod{})
	assert.Equal(t, "PREPARING", phase.Name)
}

func TestDerivePhaseElection(t *testing.T) {
	start := mustParse("2024-10-01T09:00:00Z")
	stop := mustParse("2024-10-01T21:00:00Z")
	now := mustParse("2024-10-01T10:00:00Z")
	phase := DerivePhase(now, ElectionPeriod{ElectionStart: &start, ElectionStop: &stop})
	assert.Equal(t, "ELECTION", phase.Name)
}

func TestDerivePhaseFinished(t *testing.T) {
	start := mustParse("2024-10-01T09:00:00Z")
	stop := mustParse("2024-10-01T21:00:00Z")
	serviceStop := mustParse("2024-10-01T22:00:00Z")
	now := mustParse("2024-10-02T00:00:00Z")
	phase := DerivePhase(now, ElectionPeriod{ElectionStart: &start, ElectionStop: &stop, ServiceStop: &serviceStop})
	assert.Equal(t, "FINISHED", phase.Name)
}

func TestVoterListCounts(t *testing.T) {
	loaded, pending, invalid := VoterListCounts(map[int]string{
		0: "APPLIED", 1: "SKIPPED", 2: "PENDING", 3: "INVALID",
	})
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, invalid)
}

func mustParse(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
