package vault

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"
	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

// Config holds the configuration for the Vault provider.
type Config struct {
	// Address is the URL of the Vault server (e.g., "http://localhost:8200")
	Address string
	// Token is the authentication token for Vault
	Token string
	// MountPath is the KV v2 mount (e.g., "secret")
	MountPath string
	// BasePath is the path under the mount holding the admin secrets
	BasePath string
	// Namespace is the Vault Enterprise namespace (optional)
	Namespace string
	// Timeout for Vault operations
	Timeout time.Duration
	// MaxRetries is the number of retries for failed operations
	MaxRetries int
}

// Provider implements secrets.Provider on a Vault KV v2 engine. Each key is
// stored as its own secret with a single "value" field.
type Provider struct {
	client     *api.Client
	config     Config
	retryDelay time.Duration
}

// New creates a new Vault provider instance.
func New(cfg Config) (*Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultTimeout
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = constants.SecretsMaxRetries
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address
	vaultConfig.Timeout = cfg.Timeout

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, ewrap.Wrapf(err, "creating Vault client")
	}

	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}

	if cfg.Namespace != "" {
		client.SetNamespace(cfg.Namespace)
	}

	return &Provider{
		client:     client,
		config:     cfg,
		retryDelay: constants.SecretsRetryBaseDelay,
	}, nil
}

// GetSecret reads key from Vault, retrying transient failures.
func (p *Provider) GetSecret(ctx context.Context, key string) (string, error) {
	secretPath := p.buildSecretPath(key)

	var value string

	err := secrets.Retry(ctx, p.config.MaxRetries, p.retryDelay, isNotFound, func(ctx context.Context) error {
		secret, err := p.client.KVv2(p.config.MountPath).Get(ctx, secretPath)
		if err != nil {
			return err
		}

		value, err = extractSecretValue(secret, key)

		return err
	})
	if err != nil {
		if isNotFound(err) {
			return "", ewrap.Wrap(secrets.ErrSecretNotFound, "reading vault secret").
				WithMetadata("path", secretPath)
		}

		return "", ewrap.Wrapf(err, "reading vault secret").
			WithMetadata("path", secretPath)
	}

	return value, nil
}

// SetSecret writes key to Vault, retrying transient failures.
func (p *Provider) SetSecret(ctx context.Context, key, value string) error {
	secretPath := p.buildSecretPath(key)
	data := map[string]any{"value": value}

	err := secrets.Retry(ctx, p.config.MaxRetries, p.retryDelay, nil, func(ctx context.Context) error {
		_, err := p.client.KVv2(p.config.MountPath).Put(ctx, secretPath, data)

		return err
	})
	if err != nil {
		return ewrap.Wrapf(err, "storing vault secret").
			WithMetadata("path", secretPath)
	}

	return nil
}

func (p *Provider) buildSecretPath(key string) string {
	return path.Join(strings.Trim(p.config.BasePath, "/"), strings.Trim(key, "/"))
}

func extractSecretValue(secret *api.KVSecret, key string) (string, error) {
	if secret == nil || secret.Data == nil {
		return "", ewrap.Wrap(secrets.ErrSecretNotFound, "empty secret data").
			WithMetadata("key", key)
	}

	value, ok := secret.Data["value"].(string)
	if !ok {
		return "", ewrap.New("secret value is not a string").
			WithMetadata("key", key)
	}

	return value, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, api.ErrSecretNotFound) || errors.Is(err, secrets.ErrSecretNotFound)
}

// Health checks the health status of the Vault server.
func (p *Provider) Health(ctx context.Context) error {
	health, err := p.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return ewrap.Wrapf(err, "checking Vault health")
	}

	if !health.Initialized {
		return ewrap.New("Vault is not initialized")
	}

	if health.Sealed {
		return ewrap.New("Vault is sealed")
	}

	return nil
}
