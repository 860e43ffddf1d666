package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

type fakeClient struct {
	values  map[string]string
	created []string
}

func (f *fakeClient) GetSecretValue(_ context.Context, in *secretsmanager.GetSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	value, ok := f.values[aws.ToString(in.SecretId)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("missing")}
	}

	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(value)}, nil
}

func (f *fakeClient) PutSecretValue(_ context.Context, in *secretsmanager.PutSecretValueInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.PutSecretValueOutput, error) {
	name := aws.ToString(in.SecretId)
	if _, ok := f.values[name]; !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("missing")}
	}

	f.values[name] = aws.ToString(in.SecretString)

	return &secretsmanager.PutSecretValueOutput{}, nil
}

func (f *fakeClient) CreateSecret(_ context.Context, in *secretsmanager.CreateSecretInput, _ ...func(*secretsmanager.Options)) (*secretsmanager.CreateSecretOutput, error) {
	name := aws.ToString(in.Name)
	f.values[name] = aws.ToString(in.SecretString)
	f.created = append(f.created, name)

	return &secretsmanager.CreateSecretOutput{}, nil
}

func newProvider(values map[string]string) (*Provider, *fakeClient) {
	fake := &fakeClient{values: values}

	return &Provider{client: fake, config: Config{BasePath: "gatewayshield", Timeout: time.Second}}, fake
}

func TestGetSecretFormats(t *testing.T) {
	p, _ := newProvider(map[string]string{
		"gatewayshield/API_TOKEN": `{"value":"json-token"}`,
		"gatewayshield/PLAIN":     "plain-token",
	})

	value, err := p.GetSecret(context.Background(), "API_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "json-token", value)

	value, err = p.GetSecret(context.Background(), "PLAIN")
	require.NoError(t, err)
	assert.Equal(t, "plain-token", value)
}

func TestGetSecretNotFound(t *testing.T) {
	p, _ := newProvider(map[string]string{})

	_, err := p.GetSecret(context.Background(), "API_TOKEN")
	require.ErrorIs(t, err, secrets.ErrSecretNotFound)
}

func TestSetSecretCreatesThenUpdates(t *testing.T) {
	p, fake := newProvider(map[string]string{})

	require.NoError(t, p.SetSecret(context.Background(), "API_TOKEN", "one"))
	require.NoError(t, p.SetSecret(context.Background(), "API_TOKEN", "two"))

	assert.Equal(t, []string{"gatewayshield/API_TOKEN"}, fake.created)

	value, err := p.GetSecret(context.Background(), "API_TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}
