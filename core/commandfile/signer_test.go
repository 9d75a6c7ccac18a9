package commandfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSignaturesSortsByTimestamp(t *testing.T) {
	out := "SMITH,JOHN,39001011234 2024-10-02T08:00:00Z\n" +
		"DOE,JANE,39001011235 2024-10-01T08:00:00Z\n"
	sigs, err := parseSignatures(out)
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, "DOE,JANE,39001011235", sigs[0].Signer)
	assert.Equal(t, "SMITH,JOHN,39001011234", sigs[1].Signer)
}

func TestParseSignaturesRejectsInvalidLine(t *testing.T) {
	_, err := parseSignatures("not a valid line")
	assert.Error(t, err)
}

func TestAuthorizeAgainstTrust(t *testing.T) {
	sigs := []Signature{
		{Signer: "SMITH,JOHN,39001011234", Line: "SMITH,JOHN,39001011234 2024-10-01T08:00:00Z"},
		{Signer: "DOE,JANE,39001011235", Line: "DOE,JANE,39001011235 2024-10-01T08:00:00Z"},
	}
	out := AuthorizeAgainstTrust(sigs, []string{"SMITH,JOHN,39001011234"})
	require.Len(t, out, 1)
	assert.Equal(t, "admin", out[0].Role)
}

func TestAuthorizeAgainstDatabase(t *testing.T) {
	sigs := []Signature{
		{Signer: "SMITH,JOHN,39001011234"},
		{Signer: "NOBODY,NOBODY,39001011236"},
	}
	lookup := func(cn string) ([]string, bool) {
		if cn == "SMITH,JOHN,39001011234" {
			return []string{"TECH_CONF"}, true
		}
		return nil, false
	}
	out := AuthorizeAgainstDatabase(sigs, TypeTechnical, lookup)
	require.Len(t, out, 1)
	assert.Equal(t, "TECH_CONF", out[0].Role)
}
