package jwtx_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lecternhq/lectern/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestValidateIssuer(t *testing.T) {
	c := &jwtx.Claims{RegisteredClaims: jwt.RegisteredClaims{Issuer: "lectern-auth"}}

	t.Run("matching issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer("lectern-auth"))
	})

	t.Run("empty expected issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
	})

	t.Run("mismatched issuer", func(t *testing.T) {
		require.ErrorIs(t, c.ValidateIssuer("chat-service"), jwtx.ErrIssuer)
	})
}

func TestNewClaims(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := jwtx.NewClaims("user-1", "a@b.c", "instructor", "lectern-auth", jwtx.DefaultAccessTokenTTL, now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, now.Add(time.Hour), c.Expiry())
	require.Equal(t, now, c.IssuedAt.Time)
	require.NotEmpty(t, c.ID)

	var empty jwtx.Claims
	require.True(t, empty.Expiry().IsZero())
}

func TestDecodeUnverified(t *testing.T) {
	_, signer, _ := newPair(t, secretA)
	now := time.Now().UTC()

	token, err := signer.Sign(jwtx.NewClaims("u", "e", "student", exampleIssuer, time.Minute, now.Add(-time.Hour)))
	require.NoError(t, err)

	// Expired and still decodable: revocation only needs the exp claim.
	c, err := jwtx.DecodeUnverified(token)
	require.NoError(t, err)
	require.Equal(t, "u", c.Subject)
	require.WithinDuration(t, now.Add(-time.Hour+time.Minute), c.Expiry(), time.Second)

	_, err = jwtx.DecodeUnverified("garbage")
	require.ErrorIs(t, err, jwtx.ErrMalformed)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u"})
	raw, err := noExp.SignedString([]byte(secretA))
	require.NoError(t, err)
	_, err = jwtx.DecodeUnverified(raw)
	require.ErrorIs(t, err, jwtx.ErrMissingExp)
}
