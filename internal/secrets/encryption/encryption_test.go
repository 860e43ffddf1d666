package encryption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastParams() KeyDerivationParams {
	return KeyDerivationParams{N: 1 << 10, R: 8, P: 1, KeyLen: KeyLength}
}

func TestSealOpenRoundTrip(t *testing.T) {
	c, err := NewWithParams("correct horse", fastParams())
	require.NoError(t, err)

	sealed, err := c.Seal("eyJhbGciOiJIUzI1NiJ9.token")
	require.NoError(t, err)
	assert.True(t, IsSealed(sealed))
	assert.NotContains(t, sealed, "token")

	plain, err := c.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "eyJhbGciOiJIUzI1NiJ9.token", plain)
}

func TestOpenPassesPlainValues(t *testing.T) {
	c, err := NewWithParams("pw", fastParams())
	require.NoError(t, err)

	plain, err := c.Open("not-encrypted")
	require.NoError(t, err)
	assert.Equal(t, "not-encrypted", plain)
}

func TestDecryptWrongPassword(t *testing.T) {
	c, err := NewWithParams("pw-one", fastParams())
	require.NoError(t, err)

	sealed, err := c.Seal("secret")
	require.NoError(t, err)

	other, err := NewWithParams("pw-two", fastParams())
	require.NoError(t, err)

	_, err = other.Open(sealed)
	require.Error(t, err)
}

func TestEncryptUsesFreshSalt(t *testing.T) {
	c, err := NewWithParams("pw", fastParams())
	require.NoError(t, err)

	a, err := c.Encrypt("same")
	require.NoError(t, err)
	b, err := c.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.False(t, strings.HasPrefix(a, "ENC["))
}

func TestNewWithParamsRejectsBadInput(t *testing.T) {
	_, err := NewWithParams("", fastParams())
	require.Error(t, err)

	_, err = NewWithParams("pw", KeyDerivationParams{N: 1000, R: 8, P: 1, KeyLen: KeyLength})
	require.Error(t, err)
}
