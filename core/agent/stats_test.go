package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTopNSortsDescendingAndTruncates(t *testing.T) {
	counts := map[string]int{"a": 3, "b": 10, "c": 3}
	out := NormalizeTopN(counts, 2)
	assert.Equal(t, []CountStat{{Key: "b", Count: 10}, {Key: "a", Count: 3}}, out)
}

func TestFillMissingDistrictsAddsZeroRows(t *testing.T) {
	stats := []CountStat{{Key: "0001", Count: 5}}
	known := map[string]bool{"0001": true, "0002": true}
	out := FillMissingDistricts(stats, known)
	assert.Equal(t, []CountStat{{Key: "0001", Count: 5}, {Key: "0002", Count: 0}}, out)
}
