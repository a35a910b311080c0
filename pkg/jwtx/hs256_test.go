package jwtx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestNewHS256(t *testing.T) {
	t.Parallel()

	t.Run("rejects short secrets", func(t *testing.T) {
		_, err := NewHS256([]byte("too-short"), "labreserve")
		require.ErrorIs(t, err, ErrWeakSecret)
	})

	t.Run("accepts 32-byte secrets", func(t *testing.T) {
		_, err := NewHS256(testSecret, "labreserve")
		require.NoError(t, err)
	})
}

func TestSignVerifyRoundTrip(t *testing.T) {
	t.Parallel()

	h, err := NewHS256(testSecret, "labreserve")
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := NewAccessClaims("user-1", "ada", "ADMIN", DefaultAccessTokenTTL, "labreserve", now)

	token, err := h.Sign(claims)
	require.NoError(t, err)
	require.Equal(t, 3, len(strings.Split(token, ".")))

	got, err := h.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "ada", got.Username)
	require.Equal(t, "ADMIN", got.Role)
	require.Equal(t, "labreserve", got.Issuer)
	require.NotEmpty(t, got.ID)
	require.NoError(t, got.ValidateExpiry())
}

func TestVerifyRejections(t *testing.T) {
	t.Parallel()

	h, err := NewHS256(testSecret, "labreserve")
	require.NoError(t, err)

	now := time.Now().UTC()

	t.Run("garbage token", func(t *testing.T) {
		_, err := h.Verify("not.a.jwt")
		require.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewHS256([]byte("ffffffffffffffffffffffffffffffff"), "labreserve")
		require.NoError(t, err)

		token, err := other.Sign(NewAccessClaims("u", "n", "USER", time.Minute, "labreserve", now))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, ErrInvalidSig)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := h.Sign(NewAccessClaims("u", "n", "USER", time.Minute, "labreserve", now.Add(-time.Hour)))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, ErrExpired)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token, err := h.Sign(NewAccessClaims("u", "n", "USER", time.Minute, "someone-else", now))
		require.NoError(t, err)

		_, err = h.Verify(token)
		require.ErrorIs(t, err, ErrIssuer)
	})
}
