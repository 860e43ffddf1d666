package config

import (
	"net/url"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// implement the validatable interface.
var _ validatable = (*APIConfig)(nil)

// APIConfig holds the admin REST API client configuration.
type APIConfig struct {
	BaseURL      string          `mapstructure:"base_url"`
	Timeout      time.Duration   `mapstructure:"timeout"`
	UserAgent    string          `mapstructure:"user_agent"`
	MaxIdleConns int             `mapstructure:"max_idle_conns"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
}

// Validate checks the base URL and the client timeouts.
func (c *APIConfig) Validate(eg *ewrap.ErrorGroup) {
	if c.BaseURL == "" {
		eg.Add(ewrap.New("api base_url is required"))
	} else if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		eg.Add(ewrap.New("api base_url must be an absolute URL").WithMetadata("base_url", c.BaseURL))
	}

	if c.Timeout <= 0 {
		eg.Add(ewrap.New("api timeout must be greater than 0").WithMetadata("timeout", c.Timeout))
	}

	if c.MaxIdleConns < 0 {
		eg.Add(ewrap.New("invalid max idle connections").WithMetadata("max_idle_conns", c.MaxIdleConns))
	}

	c.RateLimit.Validate(eg)
}
