package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSecret(t *testing.T) {
	t.Parallel()

	t.Run("rejects non-positive sizes", func(t *testing.T) {
		_, err := GenerateSecret(0)
		require.Error(t, err)

		_, err = GenerateSecret(-1)
		require.Error(t, err)
	})

	t.Run("produces URL-safe output of expected length", func(t *testing.T) {
		s, err := GenerateSecret(SecretSize256)
		require.NoError(t, err)
		require.Len(t, s, 43)
		require.False(t, strings.ContainsAny(s, "+/=."))
	})

	t.Run("successive secrets differ", func(t *testing.T) {
		a, err := GenerateSecret(SecretSize256)
		require.NoError(t, err)
		b, err := GenerateSecret(SecretSize256)
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})
}

func TestDigestSecret(t *testing.T) {
	t.Parallel()

	t.Run("is deterministic hex", func(t *testing.T) {
		d1 := DigestSecret("some-secret")
		d2 := DigestSecret("some-secret")
		require.Equal(t, d1, d2)
		require.Len(t, d1, 64) // hex-encoded SHA-256
	})

	t.Run("differs per input", func(t *testing.T) {
		require.NotEqual(t, DigestSecret("a"), DigestSecret("b"))
	})
}

func TestVerifySecret(t *testing.T) {
	t.Parallel()

	t.Run("matches the stored digest", func(t *testing.T) {
		require.True(t, VerifySecret("secret", DigestSecret("secret")))
	})

	t.Run("rejects a different secret", func(t *testing.T) {
		require.False(t, VerifySecret("other", DigestSecret("secret")))
	})

	t.Run("tolerates malformed stored digests", func(t *testing.T) {
		require.False(t, VerifySecret("secret", "not-hex!"))
		require.False(t, VerifySecret("secret", "abcd")) // wrong length, still no panic
		require.False(t, VerifySecret("secret", ""))
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Parallel()

	t.Run("round trips", func(t *testing.T) {
		hash, err := HashPassword("hunter22")
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))
		require.NoError(t, VerifyPassword("hunter22", hash))
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		hash, err := HashPassword("hunter22")
		require.NoError(t, err)
		require.ErrorIs(t, VerifyPassword("hunter23", hash), ErrPasswordMismatch)
	})

	t.Run("salts are unique per hash", func(t *testing.T) {
		h1, err := HashPassword("same-password")
		require.NoError(t, err)
		h2, err := HashPassword("same-password")
		require.NoError(t, err)
		require.NotEqual(t, h1, h2)
	})

	t.Run("rejects malformed hashes", func(t *testing.T) {
		require.Error(t, VerifyPassword("x", "not-a-hash"))
		require.Error(t, VerifyPassword("x", "$argon2i$v=19$m=1,t=1,p=1$aa$bb"))
	})
}
