package configschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const electionYAML = `
identifier: EP2024
questions:
  - EP2024.K
verification:
  count: 3
  minutes: 30
period:
  servicestart: 2024-10-01T08:00:00Z
  electionstart: 2024-10-01T09:00:00Z
  electionstop: 2024-10-01T21:00:00Z
  servicestop: 2024-10-01T22:00:00Z
voterlist:
  key: |
    -----BEGIN PUBLIC KEY-----
    -----END PUBLIC KEY-----
auth:
  tls:
    roots:
      - |
        -----BEGIN CERTIFICATE-----
        -----END CERTIFICATE-----
identity: commonname
vote:
  bdoc:
    bdocsize: 1048576
    filesize: 1048576
    roots:
      - cert
    profile: BES
`

func TestParseElectionHappyPath(t *testing.T) {
	c, err := ParseElection([]byte(electionYAML))
	require.NoError(t, err)
	assert.Equal(t, "EP2024", c.Identifier)
}

func TestParseElectionRejectsBadPeriodOrder(t *testing.T) {
	bad := `
identifier: EP2024
questions:
  - EP2024.K
period:
  servicestart: 2024-10-01T08:00:00Z
  electionstart: 2024-10-01T09:00:00Z
  electionstop: 2024-10-01T08:30:00Z
  servicestop: 2024-10-01T22:00:00Z
voterlist:
  key: x
auth:
  tls:
    roots: [cert]
identity: commonname
vote:
  bdoc:
    bdocsize: 1
    filesize: 1
    roots: [cert]
    profile: BES
`
	_, err := ParseElection([]byte(bad))
	assert.Error(t, err)
}

func TestParseElectionRejectsTSProfileWithoutTSP(t *testing.T) {
	bad := `
identifier: EP2024
questions:
  - EP2024.K
period:
  servicestart: 2024-10-01T08:00:00Z
  electionstart: 2024-10-01T09:00:00Z
  electionstop: 2024-10-01T21:00:00Z
  servicestop: 2024-10-01T22:00:00Z
voterlist:
  key: x
auth:
  tls:
    roots: [cert]
identity: commonname
vote:
  bdoc:
    bdocsize: 1
    filesize: 1
    roots: [cert]
    profile: TS
`
	_, err := ParseElection([]byte(bad))
	assert.Error(t, err)
}
