package config

import (
	"slices"
	"strings"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// implement the validatable interface.
var _ validatable = (*SecretsConfig)(nil)

// Secret provider names accepted by secrets.provider.
const (
	ProviderDotenv    = "dotenv"
	ProviderEncrypted = "encrypted"
	ProviderVault     = "vault"
	ProviderAWS       = "aws"
	ProviderGCP       = "gcp"
	ProviderAzure     = "azure"
)

// SecretsConfig selects and configures the provider holding the API token.
type SecretsConfig struct {
	Provider string `mapstructure:"provider"`
	Prefix   string `mapstructure:"prefix"`
	EnvPath  string `mapstructure:"env_path"`
	TokenKey string `mapstructure:"token_key"`
	// Reload re-reads the .env file on every lookup so a rotated token is picked up.
	Reload bool `mapstructure:"reload"`

	Vault VaultSecretsConfig `mapstructure:"vault"`
	AWS   AWSSecretsConfig   `mapstructure:"aws"`
	GCP   GCPSecretsConfig   `mapstructure:"gcp"`
	Azure AzureSecretsConfig `mapstructure:"azure"`
}

// VaultSecretsConfig configures the HashiCorp Vault provider.
type VaultSecretsConfig struct {
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	MountPath string `mapstructure:"mount_path"`
	Namespace string `mapstructure:"namespace"`
}

// AWSSecretsConfig configures the AWS Secrets Manager provider.
type AWSSecretsConfig struct {
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// GCPSecretsConfig configures the Google Secret Manager provider.
type GCPSecretsConfig struct {
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// AzureSecretsConfig configures the Azure Key Vault provider.
type AzureSecretsConfig struct {
	VaultURL string `mapstructure:"vault_url"`
	TenantID string `mapstructure:"tenant_id"`
}

var secretProviders = []string{
	ProviderDotenv, ProviderEncrypted, ProviderVault, ProviderAWS, ProviderGCP, ProviderAzure,
}

// Validate checks that the selected provider has what it needs.
func (c *SecretsConfig) Validate(eg *ewrap.ErrorGroup) {
	provider := strings.ToLower(c.Provider)

	if !slices.Contains(secretProviders, provider) {
		eg.Add(ewrap.New("unsupported secrets provider").
			WithMetadata("provider", c.Provider).
			WithMetadata("supported", secretProviders))

		return
	}

	if strings.TrimSpace(c.TokenKey) == "" {
		eg.Add(ewrap.New("secrets token_key is required"))
	}

	switch provider {
	case ProviderDotenv, ProviderEncrypted:
		if c.EnvPath == "" {
			eg.Add(ewrap.New("secrets env_path is required").WithMetadata("provider", provider))
		}
	case ProviderVault:
		if c.Vault.Address == "" || c.Vault.MountPath == "" {
			eg.Add(ewrap.New("vault address and mount_path are required"))
		}
	case ProviderAWS:
		if c.AWS.Region == "" {
			eg.Add(ewrap.New("aws region is required"))
		}
	case ProviderGCP:
		if c.GCP.ProjectID == "" {
			eg.Add(ewrap.New("gcp project_id is required"))
		}
	case ProviderAzure:
		if c.Azure.VaultURL == "" {
			eg.Add(ewrap.New("azure vault_url is required"))
		}
	}
}
