package config

import (
	"net"
	"net/url"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// implement the validatable interface.
var _ validatable = (*ArchiveConfig)(nil)

// ArchiveConfig controls the optional Postgres export archive.
type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	DB      DBConfig `mapstructure:"db"`
}

// DBConfig holds the archive database configuration.
type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MaxIdleConns    int32         `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnAttempts    int           `mapstructure:"conn_attempts"`
	ConnTimeout     time.Duration `mapstructure:"conn_timeout"`
}

// BuildDSN assembles the DSN from its parts unless one was configured directly.
func (c *DBConfig) BuildDSN() {
	if c.Host == "" {
		return
	}

	dsn := url.URL{
		Scheme: "postgresql",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   c.Host,
		Path:   "/" + c.Database,
	}

	if c.Port != "" {
		dsn.Host = net.JoinHostPort(c.Host, c.Port)
	}

	if c.SSLMode != "" {
		dsn.RawQuery = url.Values{"sslmode": []string{c.SSLMode}}.Encode()
	}

	c.DSN = dsn.String()
}

// Validate checks the archive database settings when the archive is enabled.
func (c *ArchiveConfig) Validate(eg *ewrap.ErrorGroup) {
	if !c.Enabled {
		return
	}

	c.DB.Validate(eg)
}

// Validate checks the DSN and pool settings.
func (c *DBConfig) Validate(eg *ewrap.ErrorGroup) {
	if c.DSN == "" {
		eg.Add(ewrap.New("archive database DSN is required"))
	}

	if c.MaxOpenConns <= 0 {
		eg.Add(ewrap.New("invalid max open connections").WithMetadata("max_open_conns", c.MaxOpenConns))
	}

	if c.MaxIdleConns < 0 || c.MaxIdleConns > c.MaxOpenConns {
		eg.Add(ewrap.New("invalid max idle connections").WithMetadata("max_idle_conns", c.MaxIdleConns))
	}

	if c.ConnMaxLifetime <= 0 {
		eg.Add(ewrap.New("invalid connection max lifetime").WithMetadata("conn_max_lifetime", c.ConnMaxLifetime))
	}

	if c.ConnAttempts <= 0 {
		eg.Add(ewrap.New("invalid connection attempts").WithMetadata("conn_attempts", c.ConnAttempts))
	}

	if c.ConnTimeout <= 0 {
		eg.Add(ewrap.New("invalid connection timeout").WithMetadata("conn_timeout", c.ConnTimeout))
	}
}
