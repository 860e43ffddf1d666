package dotenv

import (
	"context"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/joho/godotenv"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

// Provider resolves secrets from a .env file and/or the process environment.
// Environment variables take precedence over file values.
type Provider struct {
	config secrets.Config
	mu     sync.RWMutex
	values map[string]string
	loaded bool
}

// New creates a new dotenv secret provider. With the EnvFile source the file
// must exist; with Both a missing file is tolerated.
func New(config secrets.Config) (*Provider, error) {
	if config.EnvPath == "" {
		config.EnvPath = ".env"
	}

	provider := &Provider{
		config: config,
		values: map[string]string{},
	}

	if err := provider.validateEnvPath(); err != nil {
		return nil, err
	}

	return provider, nil
}

func (p *Provider) validateEnvPath() error {
	if p.config.Source == secrets.EnvVars {
		return nil
	}

	absPath, err := filepath.Abs(p.config.EnvPath)
	if err != nil {
		return ewrap.Wrapf(err, "resolving env file path").
			WithMetadata("path", p.config.EnvPath)
	}

	p.config.EnvPath = absPath

	if p.config.Source == secrets.EnvFile {
		if _, err := os.Stat(absPath); err != nil {
			if os.IsNotExist(err) {
				return ewrap.New("env file not found").
					WithMetadata("path", absPath)
			}

			return ewrap.Wrapf(err, "checking env file").
				WithMetadata("path", absPath)
		}
	}

	return nil
}

// GetSecret returns the value stored under key (prefixed and upper-cased).
func (p *Provider) GetSecret(ctx context.Context, key string) (string, error) {
	if err := p.ensureLoaded(ctx); err != nil {
		return "", err
	}

	envKey := p.formatEnvKey(key)

	if p.config.Source != secrets.EnvFile {
		if value, ok := os.LookupEnv(envKey); ok && value != "" {
			return value, nil
		}
	}

	p.mu.RLock()
	value := p.values[envKey]
	p.mu.RUnlock()

	if value == "" && !p.config.AllowMissing {
		return "", ewrap.Wrap(secrets.ErrSecretNotFound, "looking up secret").
			WithMetadata("key", envKey)
	}

	return value, nil
}

// SetSecret stores value under key, persisting it to the .env file unless
// the provider only reads the environment.
func (p *Provider) SetSecret(_ context.Context, key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	envKey := p.formatEnvKey(key)

	if p.config.Source == secrets.EnvVars {
		if err := os.Setenv(envKey, value); err != nil {
			return ewrap.Wrapf(err, "setting environment variable").
				WithMetadata("key", envKey)
		}

		return nil
	}

	current, err := p.readFile()
	if err != nil {
		return err
	}

	current[envKey] = value

	if err := godotenv.Write(current, p.config.EnvPath); err != nil {
		return ewrap.Wrapf(err, "writing env file").
			WithMetadata("path", p.config.EnvPath)
	}

	p.values = current
	p.loaded = true

	return nil
}

func (p *Provider) formatEnvKey(key string) string {
	if p.config.Prefix == "" {
		return strings.ToUpper(key)
	}

	return strings.ToUpper(p.config.Prefix) + "_" + strings.ToUpper(key)
}

func (p *Provider) ensureLoaded(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ewrap.Wrap(err, "context canceled while loading secrets")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.loaded && !p.config.Reload {
		return nil
	}

	values, err := p.readFile()
	if err != nil {
		return err
	}

	p.values = values
	p.loaded = true

	return nil
}

// readFile parses the .env file. Callers hold p.mu.
func (p *Provider) readFile() (map[string]string, error) {
	if p.config.Source == secrets.EnvVars {
		return map[string]string{}, nil
	}

	values, err := godotenv.Read(p.config.EnvPath)
	if err != nil {
		if os.IsNotExist(err) && p.config.Source == secrets.Both {
			return maps.Clone(p.values), nil
		}

		return nil, ewrap.Wrapf(err, "loading env file").
			WithMetadata("path", p.config.EnvPath)
	}

	return values, nil
}
