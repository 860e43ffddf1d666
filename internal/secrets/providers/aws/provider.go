package aws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

// Config holds the configuration for the AWS Secrets Manager provider.
type Config struct {
	// Region is the AWS region where secrets are stored.
	Region string
	// Endpoint overrides the service endpoint (localstack and similar).
	Endpoint string
	// BasePath is a prefix added to all secret names.
	BasePath string
	// MaxRetries is the number of retries for failed operations.
	MaxRetries int
	// Timeout for AWS operations.
	Timeout time.Duration
}

// client is the subset of the Secrets Manager API the provider uses.
type client interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
	PutSecretValue(ctx context.Context, in *secretsmanager.PutSecretValueInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error)
	CreateSecret(ctx context.Context, in *secretsmanager.CreateSecretInput, opts ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error)
}

// Provider implements secrets.Provider for AWS Secrets Manager. Secrets are
// either plain strings or JSON objects with a "value" field.
type Provider struct {
	client client
	config Config
}

// New creates a new AWS Secrets Manager provider instance.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultTimeout
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = constants.SecretsMaxRetries
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithRetryMaxAttempts(cfg.MaxRetries+1),
	)
	if err != nil {
		return nil, ewrap.Wrapf(err, "loading AWS config")
	}

	sm := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Provider{client: sm, config: cfg}, nil
}

// GetSecret retrieves a secret from AWS Secrets Manager.
func (p *Provider) GetSecret(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	secretName := p.buildSecretName(key)

	result, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretName),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", ewrap.Wrap(secrets.ErrSecretNotFound, "retrieving secret").
				WithMetadata("name", secretName)
		}

		return "", ewrap.Wrapf(err, "retrieving secret").
			WithMetadata("name", secretName)
	}

	return parseSecretValue(result.SecretString, key)
}

// SetSecret stores value, creating the secret when it does not exist yet.
func (p *Provider) SetSecret(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	secretName := p.buildSecretName(key)

	payload, err := json.Marshal(map[string]string{"value": value})
	if err != nil {
		return ewrap.Wrapf(err, "marshaling secret value").
			WithMetadata("key", key)
	}

	_, err = p.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:     aws.String(secretName),
		SecretString: aws.String(string(payload)),
	})
	if err == nil {
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return ewrap.Wrapf(err, "updating secret").
			WithMetadata("name", secretName)
	}

	_, err = p.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:         aws.String(secretName),
		SecretString: aws.String(string(payload)),
	})
	if err != nil {
		return ewrap.Wrapf(err, "creating secret").
			WithMetadata("name", secretName)
	}

	return nil
}

func (p *Provider) buildSecretName(key string) string {
	if p.config.BasePath == "" {
		return key
	}

	return p.config.BasePath + "/" + key
}

func parseSecretValue(secretString *string, key string) (string, error) {
	if secretString == nil || *secretString == "" {
		return "", ewrap.Wrap(secrets.ErrSecretNotFound, "empty secret value").
			WithMetadata("key", key)
	}

	var secretData map[string]string
	if err := json.Unmarshal([]byte(*secretString), &secretData); err != nil {
		// plain string secret
		return *secretString, nil
	}

	value, ok := secretData["value"]
	if !ok {
		return "", ewrap.New("invalid secret format").
			WithMetadata("key", key)
	}

	return value, nil
}
