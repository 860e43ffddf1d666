package azure

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

// Config holds the configuration for the Azure Key Vault provider.
type Config struct {
	// VaultURL is the vault endpoint, e.g. https://my-vault.vault.azure.net/.
	VaultURL string
	// TenantID restricts the default credential chain to one tenant.
	TenantID string
	// Timeout for Azure operations.
	Timeout time.Duration
	// MaxRetries is the number of retries for failed operations.
	MaxRetries int
	// Tags to apply to secrets (key-value pairs).
	Tags map[string]*string
}

// Provider implements the secrets.Provider interface for Azure Key Vault.
type Provider struct {
	client     *azsecrets.Client
	config     Config
	retryDelay time.Duration
}

// New creates a provider authenticated through the default Azure credential
// chain (environment, workload identity, managed identity, az CLI).
func New(_ context.Context, cfg Config) (*Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultTimeout
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = constants.SecretsMaxRetries
	}

	cred, err := azidentity.NewDefaultAzureCredential(&azidentity.DefaultAzureCredentialOptions{
		TenantID: cfg.TenantID,
	})
	if err != nil {
		return nil, ewrap.Wrapf(err, "creating Azure credentials")
	}

	client, err := azsecrets.NewClient(cfg.VaultURL, cred, nil)
	if err != nil {
		return nil, ewrap.Wrapf(err, "creating Key Vault client")
	}

	return &Provider{
		client:     client,
		config:     cfg,
		retryDelay: constants.SecretsRetryBaseDelay,
	}, nil
}

// SecretName maps an env-style key to a Key Vault name (alphanumerics and dashes).
func SecretName(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

// GetSecret retrieves the current version of key.
func (p *Provider) GetSecret(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	name := SecretName(key)

	var value string

	err := secrets.Retry(ctx, p.config.MaxRetries, p.retryDelay, isPermanent, func(ctx context.Context) error {
		resp, err := p.client.GetSecret(ctx, name, "", nil)
		if err != nil {
			return err
		}

		if resp.Value != nil {
			value = *resp.Value
		}

		return nil
	})
	if err != nil {
		if statusCode(err) == http.StatusNotFound {
			return "", ewrap.Wrap(secrets.ErrSecretNotFound, "retrieving secret").
				WithMetadata("name", name)
		}

		return "", ewrap.Wrapf(err, "retrieving secret").
			WithMetadata("name", name)
	}

	return value, nil
}

// SetSecret stores a new version of key.
func (p *Provider) SetSecret(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	name := SecretName(key)

	params := azsecrets.SetSecretParameters{
		Value: to.Ptr(value),
		Tags:  p.config.Tags,
	}

	if _, err := p.client.SetSecret(ctx, name, params, nil); err != nil {
		return ewrap.Wrapf(err, "setting secret").
			WithMetadata("name", name)
	}

	return nil
}

func statusCode(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}

	return 0
}

func isPermanent(err error) bool {
	switch statusCode(err) {
	case http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
		return true
	default:
		return false
	}
}
