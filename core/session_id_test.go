package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIDRoundTrip(t *testing.T) {
	cases := []SessionKey{
		{Address: "alice", Authenticator: "anchor", Network: "telos"},
		{Address: "0xAbC0000000000000000000000000000000000001", Authenticator: "metamask", Network: "sepolia"},
		{Address: "bob.gm", Authenticator: "a-b", Network: "telos-testnet"},
	}
	for _, k := range cases {
		id := FormatSessionID(k.Address, k.Authenticator, k.Network)
		assert.Equal(t, []string{string(k.Address), k.Authenticator, k.Network}, strings.Split(id, SessionIDSeparator))

		parsed, err := ParseSessionID(id)
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
		assert.Equal(t, id, parsed.String())
	}
}

func TestParseSessionIDRejectsMalformed(t *testing.T) {
	for _, id := range []string{"alice", "alice--anchor", "a--b--c--d", "--anchor--telos"} {
		_, err := ParseSessionID(id)
		assert.ErrorIs(t, err, ErrInvalidSessionID, id)
	}
}

func TestSessionKeyValidate(t *testing.T) {
	valid := SessionKey{Address: "alice", Authenticator: "a-b", Network: "telos-testnet"}
	assert.NoError(t, valid.Validate())

	for _, k := range []SessionKey{
		{Address: "al--ice", Authenticator: "anchor", Network: "telos"},
		{Address: "alice-", Authenticator: "anchor", Network: "telos"},
		{Address: "alice", Authenticator: "-anchor", Network: "telos"},
		{Address: "alice", Authenticator: "anchor", Network: "telos--main"},
		{Address: "alice", Authenticator: "", Network: "telos"},
	} {
		assert.ErrorIs(t, k.Validate(), ErrInvalidSessionID, k.String())
	}
}

func TestParseSessionIDRejectsAmbiguousParts(t *testing.T) {
	_, err := ParseSessionID("alice---anchor--telos")
	assert.ErrorIs(t, err, ErrInvalidSessionID)
}
