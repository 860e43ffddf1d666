package config

import "github.com/hyp3rd/ewrap/pkg/ewrap"

// implement the validatable interface.
var _ validatable = (*RateLimitConfig)(nil)

// RateLimitConfig throttles outgoing API requests. A zero rate disables it.
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size"`
}

// Enabled reports whether requests should be throttled.
func (c RateLimitConfig) Enabled() bool {
	return c.RequestsPerSecond > 0
}

// Validate ensures the values are usable when throttling is on.
func (c *RateLimitConfig) Validate(eg *ewrap.ErrorGroup) {
	if c.RequestsPerSecond < 0 {
		eg.Add(ewrap.New("rate limit requests_per_second must not be negative"))
	}

	if c.Enabled() && c.BurstSize <= 0 {
		eg.Add(ewrap.New("rate limit burst_size must be greater than 0"))
	}
}
