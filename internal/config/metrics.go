package config

import (
	"net"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// implement the validatable interface.
var _ validatable = (*MetricsConfig)(nil)

// MetricsConfig holds the address of the optional /metrics listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Validate checks that Addr, when set, is a host:port pair.
func (c *MetricsConfig) Validate(eg *ewrap.ErrorGroup) {
	if c.Addr == "" {
		return
	}

	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		eg.Add(ewrap.Wrap(err, "metrics addr is invalid").WithMetadata("addr", c.Addr))
	}
}
