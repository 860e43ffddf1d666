package secrets

import (
	"context"
	"errors"
)

// ErrSecretNotFound is wrapped by providers when a key does not exist.
var ErrSecretNotFound = errors.New("secret not found")

// Source represents different sources of secrets.
type Source uint8

const (
	// EnvFile indicates secrets should be loaded from .env file.
	EnvFile Source = iota
	// EnvVars indicates secrets should be loaded from environment variables.
	EnvVars
	// Both indicates secrets should be loaded from both .env file and environment variables.
	Both
)

// Provider defines the interface for secret management implementations.
type Provider interface {
	// GetSecret retrieves a secret by its key
	GetSecret(ctx context.Context, key string) (string, error)
	// SetSecret stores a secret with the given key and value
	SetSecret(ctx context.Context, key, value string) error
}

// Config holds configuration options for the dotenv providers.
type Config struct {
	// Source determines where to load secrets from
	Source Source
	// Prefix is used to namespace environment variables
	Prefix string
	// EnvPath is the path to the .env file
	EnvPath string
	// AllowMissing makes a missing key resolve to "" instead of ErrSecretNotFound
	AllowMissing bool
	// Reload re-reads EnvPath on every lookup
	Reload bool
}

// Store holds the secrets the application loaded at startup.
type Store struct {
	// APICredentials holds the admin API bearer token
	APICredentials struct {
		Token string `mapstructure:"token"`
	} `mapstructure:"api_credentials"`
	// DBCredentials holds the export archive database access information
	DBCredentials struct {
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
	} `mapstructure:"db_credentials"`
}
