package configschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validVotersList() string {
	return "2\n" +
		"EP2024\n" +
		"0\n" +
		"2024-01-01T00:00:00Z\t2024-12-31T00:00:00Z\n" +
		"39001011234\tJohn Smith\tlisamine\t0037\t12\n" +
		"39001011235\tJane Smith\tlisamine\tFOREIGN\t1\n"
}

func TestParseVotersHappyPath(t *testing.T) {
	list, err := ParseVoters([]byte(validVotersList()))
	require.NoError(t, err)
	assert.Equal(t, 0, list.Changeset)
	assert.Len(t, list.Voters, 2)
}

func TestParseVotersRejectsMissingTrailingNewline(t *testing.T) {
	content := validVotersList()
	content = content[:len(content)-1]
	_, err := ParseVoters([]byte(content))
	assert.Error(t, err)
}

func TestParseVotersRejectsCR(t *testing.T) {
	content := "2\r\n" +
		"EP2024\n" +
		"0\n" +
		"2024-01-01T00:00:00Z\t2024-12-31T00:00:00Z\n" +
		"39001011234\tJohn Smith\tlisamine\t0037\t12\n"
	_, err := ParseVoters([]byte(content))
	assert.Error(t, err)
}

func TestParseVotersRejectsRemovalInInitialList(t *testing.T) {
	content := "2\n" +
		"EP2024\n" +
		"0\n" +
		"2024-01-01T00:00:00Z\t2024-12-31T00:00:00Z\n" +
		"39001011234\tJohn Smith\tkustutamine\t0037\t12\n"
	_, err := ParseVoters([]byte(content))
	assert.Error(t, err)
}

func TestVoterRegistryRejectsDuplicateAdd(t *testing.T) {
	reg := NewVoterRegistry()
	list, err := ParseVoters([]byte(validVotersList()))
	require.NoError(t, err)
	require.NoError(t, reg.Apply(list))

	dup := "2\n" +
		"EP2024\n" +
		"1\n" +
		"2024-01-01T00:00:00Z\t2024-12-31T00:00:00Z\n" +
		"39001011234\tJohn Smith\tlisamine\t0037\t12\n"
	list2, err := ParseVoters([]byte(dup))
	require.NoError(t, err)
	err = reg.Apply(list2)
	assert.Error(t, err)
}

func TestVoterRegistryRejectsRemovalOfAbsentID(t *testing.T) {
	reg := NewVoterRegistry()
	content := "2\n" +
		"EP2024\n" +
		"1\n" +
		"2024-01-01T00:00:00Z\t2024-12-31T00:00:00Z\n" +
		"39009999999\tNobody\tkustutamine\t0037\t12\n"
	list, err := ParseVoters([]byte(content))
	require.NoError(t, err)
	err = reg.Apply(list)
	assert.Error(t, err)
}
