package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	require.NoError(t, err)

	return token
}

func TestStaticToken(t *testing.T) {
	token, err := StaticToken(" abc ").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = StaticToken("").Token(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}

type countingProvider struct {
	values []string
	calls  int
}

func (c *countingProvider) GetSecret(context.Context, string) (string, error) {
	if c.calls >= len(c.values) {
		return "", ewrap.Wrap(secrets.ErrSecretNotFound, "lookup")
	}

	v := c.values[c.calls]
	c.calls++

	return v, nil
}

func (c *countingProvider) SetSecret(context.Context, string, string) error { return nil }

func TestSecretTokenReadsEveryCall(t *testing.T) {
	provider := &countingProvider{values: []string{"first", "second"}}
	source := SecretToken{Provider: provider, Key: "API_TOKEN"}

	first, err := source.Token(context.Background())
	require.NoError(t, err)
	second, err := source.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "first", first)
	assert.Equal(t, "second", second)

	_, err = source.Token(context.Background())
	require.ErrorIs(t, err, ErrNoToken)
}

func TestCheckToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, CheckToken(signed(t, now.Add(time.Hour)), now))
	require.ErrorIs(t, CheckToken(signed(t, now.Add(-time.Minute)), now), ErrTokenExpired)
	require.NoError(t, CheckToken("opaque-session-token", now))
}

func TestExpiresAt(t *testing.T) {
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	got, ok := ExpiresAt(signed(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = ExpiresAt("not.a.jwt")
	assert.False(t, ok)
}
