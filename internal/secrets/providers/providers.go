// Package providers builds the secrets.Provider selected in configuration.
package providers

import (
	"context"
	"os"
	"strings"

	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/config"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/providers/aws"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/providers/azure"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/providers/dotenv"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/providers/gcp"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets/providers/vault"
)

// New returns the provider named by cfg.Provider.
func New(ctx context.Context, cfg config.SecretsConfig) (secrets.Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case config.ProviderDotenv, "":
		return dotenv.New(dotenvConfig(cfg))
	case config.ProviderEncrypted:
		password, ok := os.LookupEnv(constants.EncryptionPassword.String())
		if !ok || password == "" {
			return nil, ewrap.New("encrypted secrets need a password").
				WithMetadata("env", constants.EncryptionPassword.String())
		}

		return dotenv.NewEncrypted(dotenvConfig(cfg), password)
	case config.ProviderVault:
		return vault.New(vault.Config{
			Address:   cfg.Vault.Address,
			Token:     cfg.Vault.Token,
			MountPath: cfg.Vault.MountPath,
			BasePath:  cfg.Prefix,
			Namespace: cfg.Vault.Namespace,
		})
	case config.ProviderAWS:
		return aws.New(ctx, aws.Config{
			Region:   cfg.AWS.Region,
			Endpoint: cfg.AWS.Endpoint,
			BasePath: cfg.Prefix,
		})
	case config.ProviderGCP:
		return gcp.New(ctx, gcp.Config{
			ProjectID:       cfg.GCP.ProjectID,
			CredentialsFile: cfg.GCP.CredentialsFile,
			BasePath:        cfg.Prefix,
		})
	case config.ProviderAzure:
		return azure.New(ctx, azure.Config{
			VaultURL: cfg.Azure.VaultURL,
			TenantID: cfg.Azure.TenantID,
		})
	default:
		return nil, ewrap.New("unsupported secrets provider").WithMetadata("provider", cfg.Provider)
	}
}

func dotenvConfig(cfg config.SecretsConfig) secrets.Config {
	return secrets.Config{
		Source:  secrets.Both,
		Prefix:  cfg.Prefix,
		EnvPath: cfg.EnvPath,
		Reload:  cfg.Reload,
	}
}
