package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ivxv.ee/collector-admin/core/collstate"
)

func TestOrderServicesLogFirstProxyLast(t *testing.T) {
	in := []collstate.ServiceRow{
		{ID: "p1", ServiceType: "proxy"},
		{ID: "v1", ServiceType: "voting"},
		{ID: "l1", ServiceType: "log"},
		{ID: "s1", ServiceType: "storage"},
	}
	out := OrderServices(in)
	var types []string
	for _, s := range out {
		types = append(types, s.ServiceType)
	}
	assert.Equal(t, []string{"log", "storage", "voting", "proxy"}, types)
}

func TestOrderVoterChangesetsAscendingPendingOnly(t *testing.T) {
	states := map[int]string{
		0: "APPLIED",
		1: "PENDING",
		3: "PENDING",
		2: "INVALID",
	}
	assert.Equal(t, []int{1, 3}, OrderVoterChangesets(states))
}
