package config

import (
	"github.com/hyp3rd/ewrap/pkg/ewrap"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

// implement the validatable interface.
var _ validatable = (*LogConfig)(nil)

// LogConfig holds the logging configuration.
type LogConfig struct {
	Level     string `mapstructure:"level"`
	JSON      bool   `mapstructure:"json"`
	File      string `mapstructure:"file"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	Compress  bool   `mapstructure:"compress"`
	Caller    bool   `mapstructure:"caller"`
}

// ParsedLevel returns the configured level, InfoLevel when unknown.
func (c LogConfig) ParsedLevel() logger.Level {
	level, _ := logger.ParseLevel(c.Level)

	return level
}

// Validate checks the level name and the rotation size.
func (c *LogConfig) Validate(eg *ewrap.ErrorGroup) {
	if _, ok := logger.ParseLevel(c.Level); !ok {
		eg.Add(ewrap.New("unknown log level").WithMetadata("level", c.Level))
	}

	if c.File != "" && c.MaxSizeMB <= 0 {
		eg.Add(ewrap.New("log max_size_mb must be greater than 0").WithMetadata("max_size_mb", c.MaxSizeMB))
	}
}
