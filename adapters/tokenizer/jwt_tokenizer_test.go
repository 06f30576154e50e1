package tokenizer

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/turnstile/core"
)

var testSecret = []byte("test-secret")

func testGrant(ttl time.Duration) *core.Grant {
	now := time.Now().Truncate(time.Second)
	return &core.Grant{
		ID:        uuid.New().String(),
		Reference: "0xdeadbeef",
		Payer:     "0x6113e0f4512BB69a28FA4De9B3cfa0cf7a5B2D50",
		Tier:      "premium",
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestGrantRoundTrip(t *testing.T) {
	j := NewJWTTokenizer(testSecret)
	grant := testGrant(time.Hour)

	token, err := j.GrantToToken(grant)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := j.TokenToGrant(token)
	require.NoError(t, err)
	require.Equal(t, grant.ID, parsed.ID)
	require.Equal(t, grant.Reference, parsed.Reference)
	require.Equal(t, grant.Payer, parsed.Payer)
	require.Equal(t, grant.Tier, parsed.Tier)
	require.Equal(t, grant.IssuedAt.Unix(), parsed.IssuedAt.Unix())
	require.Equal(t, grant.ExpiresAt.Unix(), parsed.ExpiresAt.Unix())
}

func TestExpiredGrantRejected(t *testing.T) {
	j := NewJWTTokenizer(testSecret)
	grant := testGrant(-time.Minute)

	token, err := j.GrantToToken(grant)
	require.NoError(t, err)

	_, err = j.TokenToGrant(token)
	require.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestTamperedTokenRejected(t *testing.T) {
	j := NewJWTTokenizer(testSecret)

	token, err := j.GrantToToken(testGrant(time.Hour))
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, err = j.TokenToGrant(tampered)
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestWrongSecretRejected(t *testing.T) {
	minter := NewJWTTokenizer(testSecret)
	validator := NewJWTTokenizer([]byte("another-secret"))

	token, err := minter.GrantToToken(testGrant(time.Hour))
	require.NoError(t, err)

	_, err = validator.TokenToGrant(token)
	require.ErrorIs(t, err, core.ErrInvalidToken)
}

func TestMalformedTokenRejected(t *testing.T) {
	j := NewJWTTokenizer(testSecret)

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := j.TokenToGrant(token)
		require.Error(t, err, "token %q must not validate", token)
	}
}
