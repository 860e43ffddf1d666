package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

// Config holds the configuration for the GCP Secret Manager provider.
type Config struct {
	// ProjectID is the Google Cloud project ID.
	ProjectID string
	// CredentialsFile is the path to the service account JSON file
	// If empty, uses Application Default Credentials.
	CredentialsFile string
	// BasePath is prepended to secret ids with a dash (ids cannot contain slashes).
	BasePath string
	// Timeout for GCP operations
	Timeout time.Duration
	// MaxRetries is the number of retries for failed operations.
	MaxRetries int
	// Labels to apply to created secrets.
	Labels map[string]string
}

// Provider implements the secrets.Provider interface for Google Cloud Secret Manager.
type Provider struct {
	client     *secretmanager.Client
	config     Config
	retryDelay time.Duration
}

// New creates a new GCP Secret Manager provider instance.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = constants.DefaultTimeout
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = constants.SecretsMaxRetries
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, ewrap.Wrapf(err, "creating Secret Manager client")
	}

	return &Provider{
		client:     client,
		config:     cfg,
		retryDelay: constants.SecretsRetryBaseDelay,
	}, nil
}

// GetSecret reads the latest version of key.
func (p *Provider) GetSecret(ctx context.Context, key string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	req := &secretmanagerpb.AccessSecretVersionRequest{
		Name: p.secretName(key) + "/versions/latest",
	}

	var data []byte

	err := secrets.Retry(ctx, p.config.MaxRetries, p.retryDelay, isPermanent, func(ctx context.Context) error {
		result, err := p.client.AccessSecretVersion(ctx, req)
		if err != nil {
			return err
		}

		data = result.GetPayload().GetData()

		return nil
	})
	if err != nil {
		if isNotFoundError(err) {
			return "", ewrap.Wrap(secrets.ErrSecretNotFound, "accessing secret version").
				WithMetadata("key", key)
		}

		return "", ewrap.Wrapf(err, "accessing secret version").
			WithMetadata("key", key)
	}

	return string(data), nil
}

// SetSecret adds a new version of key, creating the secret first if needed.
func (p *Provider) SetSecret(ctx context.Context, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	name := p.secretName(key)

	_, err := p.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{Name: name})
	if err != nil {
		if !isNotFoundError(err) {
			return ewrap.Wrapf(err, "checking secret existence").WithMetadata("key", key)
		}

		createReq := &secretmanagerpb.CreateSecretRequest{
			Parent:   "projects/" + p.config.ProjectID,
			SecretId: p.secretID(key),
			Secret: &secretmanagerpb.Secret{
				Labels: p.config.Labels,
				Replication: &secretmanagerpb.Replication{
					Replication: &secretmanagerpb.Replication_Automatic_{
						Automatic: &secretmanagerpb.Replication_Automatic{},
					},
				},
			},
		}

		if _, err := p.client.CreateSecret(ctx, createReq); err != nil {
			return ewrap.Wrapf(err, "creating secret").
				WithMetadata("key", key)
		}
	}

	_, err = p.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent:  name,
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	})
	if err != nil {
		return ewrap.Wrapf(err, "adding secret version").
			WithMetadata("key", key)
	}

	return nil
}

func (p *Provider) secretID(key string) string {
	id := strings.ReplaceAll(key, "/", "-")
	if p.config.BasePath != "" {
		id = strings.Trim(p.config.BasePath, "/-") + "-" + id
	}

	return id
}

func (p *Provider) secretName(key string) string {
	return fmt.Sprintf("projects/%s/secrets/%s", p.config.ProjectID, p.secretID(key))
}

// Close closes the GCP client connection.
func (p *Provider) Close() error {
	if err := p.client.Close(); err != nil {
		return ewrap.Wrapf(err, "closing client")
	}

	return nil
}

func isNotFoundError(err error) bool {
	st, ok := status.FromError(err)

	return ok && st.Code() == codes.NotFound
}

// isPermanent reports gRPC codes that retrying cannot fix.
func isPermanent(err error) bool {
	st, ok := status.FromError(err)
	if !ok {
		return false
	}

	switch st.Code() {
	case codes.NotFound, codes.PermissionDenied, codes.Unauthenticated, codes.InvalidArgument:
		return true
	default:
		return false
	}
}
