package config

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/spf13/viper"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/constants"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/secrets"
)

// Config represents the application configuration, loaded from a YAML file,
// GATEWAYSHIELD_* environment variables and, optionally, a secrets provider.
type Config struct {
	Environment string         `mapstructure:"environment"`
	API         APIConfig      `mapstructure:"api"`
	Listing     ListingConfig  `mapstructure:"listing"`
	Export      ExportConfig   `mapstructure:"export"`
	Archive     ArchiveConfig  `mapstructure:"archive"`
	Secrets     SecretsConfig  `mapstructure:"secrets"`
	Log         LogConfig      `mapstructure:"log"`
	Metrics     MetricsConfig  `mapstructure:"metrics"`
	Store       *secrets.Store `mapstructure:"-"` // Secrets are handled separately

	v  *viper.Viper
	mu sync.RWMutex
	// listeners are notified after the config file changed and reloaded cleanly
	listeners []listener
}

// Options holds configuration options for initializing the Config.
type Options struct {
	// ConfigName is the name of the configuration file (without extension).
	ConfigName string
	// ConfigPaths are the directories searched for the configuration file.
	ConfigPaths []string
	// ConfigFile, when set, is used instead of searching ConfigPaths.
	ConfigFile string
	// SecretsProvider is the interface for accessing secrets.
	SecretsProvider secrets.Provider
	// Timeout for secrets operations.
	Timeout time.Duration
}

// DefaultOptions returns the default configuration options.
func DefaultOptions() Options {
	return Options{
		ConfigName:  "config",
		ConfigPaths: []string{".", "./configs"},
		Timeout:     constants.DefaultTimeout,
	}
}

// NewConfig loads the application configuration and validates it before returning.
func NewConfig(ctx context.Context, opts Options) (*Config, error) {
	defaults := DefaultOptions()

	if opts.ConfigName == "" {
		opts.ConfigName = defaults.ConfigName
	}

	if len(opts.ConfigPaths) == 0 {
		opts.ConfigPaths = defaults.ConfigPaths
	}

	if opts.Timeout == 0 {
		opts.Timeout = defaults.Timeout
	}

	v := viper.New()
	v.SetConfigType("yaml")

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
	} else {
		v.SetConfigName(opts.ConfigName)

		for _, path := range opts.ConfigPaths {
			v.AddConfigPath(path)
		}
	}

	v.SetEnvPrefix(constants.EnvPrefix.String())
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if opts.ConfigFile != "" || !errors.As(err, &configFileNotFoundError) {
			return nil, ewrap.Wrapf(err, "reading config file")
		}
	}

	cfg := &Config{v: v}
	if err := cfg.decode(v); err != nil {
		return nil, err
	}

	if opts.SecretsProvider != nil {
		if err := cfg.LoadSecrets(ctx, opts.SecretsProvider, opts.Timeout); err != nil {
			return nil, ewrap.Wrapf(err, "initializing secrets")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, ewrap.Wrap(err, "validating configuration")
	}

	return cfg, nil
}

func (c *Config) decode(v *viper.Viper) error {
	if err := v.Unmarshal(c); err != nil {
		return ewrap.Wrapf(err, "unmarshaling config")
	}

	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	c.Archive.DB.BuildDSN()

	return nil
}

// LoadSecrets loads the secrets store through provider and applies the
// values that override file configuration.
func (c *Config) LoadSecrets(ctx context.Context, provider secrets.Provider, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	manager := secrets.NewManager(provider, secrets.LoadOptions{
		TokenKey:        c.Secrets.TokenKey,
		RequireDatabase: c.Archive.Enabled,
	})

	if err := manager.Load(ctx); err != nil {
		return ewrap.Wrapf(err, "loading secrets")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.Store = manager.GetStore()

	return c.applySecrets()
}

// applySecrets updates the configuration with values from the secrets store.
func (c *Config) applySecrets() error {
	if c.Store == nil {
		return ewrap.New("secrets are empty")
	}

	if c.Store.DBCredentials.Username != "" {
		c.Archive.DB.Username = c.Store.DBCredentials.Username
	}

	if c.Store.DBCredentials.Password != "" {
		c.Archive.DB.Password = c.Store.DBCredentials.Password
	}

	c.Archive.DB.BuildDSN()

	return nil
}

// Validate checks every section and joins the errors found.
func (c *Config) Validate() error {
	validator := NewValidator()

	return validator.Validate(&c.API,
		&c.Listing,
		&c.Export,
		&c.Archive,
		&c.Secrets,
		&c.Log,
		&c.Metrics)
}

// Viper exposes the underlying viper instance (used by the CLI to bind flags).
func (c *Config) Viper() *viper.Viper {
	return c.v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	// API defaults
	v.SetDefault("api.timeout", constants.APITimeout)
	v.SetDefault("api.user_agent", constants.APIUserAgent)
	v.SetDefault("api.max_idle_conns", constants.APIMaxIdleConns)
	v.SetDefault("api.rate_limit.requests_per_second", 0)
	v.SetDefault("api.rate_limit.burst_size", 1)

	// Listing defaults
	v.SetDefault("listing.debounce", constants.ListingDebounce)
	v.SetDefault("listing.page_size", constants.ListingPageSize)
	v.SetDefault("listing.max_page_size", constants.ListingMaxPageSize)

	// Export defaults
	v.SetDefault("export.dir", constants.ExportDir)
	v.SetDefault("export.format", constants.ExportFormat)

	// Archive defaults
	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.db.max_open_conns", constants.ArchiveMaxOpenConns)
	v.SetDefault("archive.db.max_idle_conns", constants.ArchiveMaxIdleConns)
	v.SetDefault("archive.db.conn_max_lifetime", constants.ArchiveConnLifetime)
	v.SetDefault("archive.db.conn_attempts", constants.ArchiveConnAttempts)
	v.SetDefault("archive.db.conn_timeout", constants.ArchiveConnTimeout)

	// Secrets defaults
	v.SetDefault("secrets.provider", constants.SecretsProvider)
	v.SetDefault("secrets.env_path", constants.SecretsEnvPath)
	v.SetDefault("secrets.token_key", constants.APIToken.String())

	// Log defaults
	v.SetDefault("log.level", constants.LogLevel)
	v.SetDefault("log.max_size_mb", constants.LogMaxSizeMB)

	// Metrics defaults
	v.SetDefault("metrics.addr", constants.MetricsAddr)
}
