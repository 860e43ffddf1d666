// Package auth supplies the bearer token attached to every admin API request.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

var (
	// ErrNoToken is returned when no bearer token is available.
	ErrNoToken = errors.New("no api token available")
	// ErrTokenExpired is returned for a JWT whose exp claim has passed.
	ErrTokenExpired = errors.New("api token expired")
)

// TokenProvider returns the bearer token for the next request. It is called
// once per request so rotated tokens take effect without a restart.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenProvider.
type TokenFunc func(ctx context.Context) (string, error)

// Token calls f.
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns the same token.
type StaticToken string

// Token returns the token or ErrNoToken when it is blank.
func (s StaticToken) Token(context.Context) (string, error) {
	token := strings.TrimSpace(string(s))
	if token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

// SecretToken reads the token from a secrets provider on every call.
type SecretToken struct {
	Provider secrets.Provider
	Key      string
}

// Token looks the key up through the provider.
func (s SecretToken) Token(ctx context.Context) (string, error) {
	value, err := s.Provider.GetSecret(ctx, s.Key)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return "", ewrap.Wrap(ErrNoToken, "reading api token").WithMetadata("key", s.Key)
		}

		return "", ewrap.Wrap(err, "reading api token").WithMetadata("key", s.Key)
	}

	token := strings.TrimSpace(value)
	if token == "" {
		return "", ErrNoToken
	}

	return token, nil
}

// ExpiresAt returns the exp claim of a JWT without verifying its signature.
// ok is false for opaque tokens and JWTs without exp.
func ExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}

	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// CheckToken returns ErrTokenExpired when token is a JWT that expired before now.
func CheckToken(token string, now time.Time) error {
	exp, ok := ExpiresAt(token)
	if ok && !now.Before(exp) {
		return ewrap.Wrap(ErrTokenExpired, "checking api token").
			WithMetadata("expired_at", exp.UTC().Format(time.RFC3339))
	}

	return nil
}
