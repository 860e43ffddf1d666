// Package pg keeps the optional Postgres archive of written exports.
package pg

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/config"
	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

// DBTX is the subset of pgxpool.Pool and pgx.Tx the stores need.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var _ DBTX = (*pgxpool.Pool)(nil)

// Manager owns the archive connection pool.
type Manager struct {
	pool   *pgxpool.Pool
	cfg    config.DBConfig
	logger logger.Logger
}

// New returns a Manager for cfg. Connect opens the pool.
func New(cfg config.DBConfig, log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}

	return &Manager{cfg: cfg, logger: log}
}

// Connect opens the pool, retrying with a linear backoff, and pings it.
func (m *Manager) Connect(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(m.cfg.DSN)
	if err != nil {
		return ewrap.Wrap(err, "parsing archive database config")
	}

	poolConfig.MaxConns = m.cfg.MaxOpenConns
	poolConfig.MinConns = m.cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = m.cfg.ConnMaxLifetime

	attempts := max(m.cfg.ConnAttempts, 1)

	for attempt := 1; attempt <= attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, m.cfg.ConnTimeout)
		m.pool, err = pgxpool.NewWithConfig(attemptCtx, poolConfig)

		cancel()

		if err == nil {
			break
		}

		if attempt == attempts {
			return ewrap.Wrapf(err, "connecting to archive database after %d attempts", attempt).
				WithMetadata("dsn", maskDSN(m.cfg.DSN))
		}

		m.logger.WithError(err).WithFields(
			logger.F("attempt", attempt),
			logger.F("attempts", attempts),
		).Warn("archive database connection failed")

		select {
		case <-ctx.Done():
			return ewrap.Wrap(ctx.Err(), "connecting to archive database")
		case <-time.After(time.Second * time.Duration(attempt)):
		}
	}

	return m.Ping(ctx)
}

// Ping verifies the pool can reach the server.
func (m *Manager) Ping(ctx context.Context) error {
	if m.pool == nil {
		return ewrap.New("archive database not connected")
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ConnTimeout)
	defer cancel()

	if err := m.pool.Ping(ctx); err != nil {
		return ewrap.Wrap(err, "pinging archive database").WithMetadata("dsn", maskDSN(m.cfg.DSN))
	}

	return nil
}

// Pool returns the connection pool, nil before Connect.
func (m *Manager) Pool() *pgxpool.Pool {
	return m.pool
}

// Close releases the pool.
func (m *Manager) Close() {
	if m.pool != nil {
		m.pool.Close()
	}
}

// Transaction runs fn inside a transaction, rolling back when fn fails.
func (m *Manager) Transaction(ctx context.Context, fn func(context.Context, pgx.Tx) error) error {
	if m.pool == nil {
		return ewrap.New("archive database not connected")
	}

	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return ewrap.Wrap(err, "beginning transaction")
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return ewrap.New("transaction failed").
				WithMetadata("exec_error", err).
				WithMetadata("rollback_error", rbErr)
		}

		return ewrap.Wrap(err, "executing transaction")
	}

	if err := tx.Commit(ctx); err != nil {
		return ewrap.Wrap(err, "committing transaction")
	}

	return nil
}

// maskDSN renders dsn with the password and key material hidden.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}

	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return "[INVALID_DSN]"
	}

	var b strings.Builder

	b.WriteString("postgres://")
	b.WriteString(cfg.User)

	if cfg.Password != "" {
		b.WriteString(":********")
	}

	if cfg.Host != "" {
		b.WriteString("@" + cfg.Host)

		if cfg.Port != 0 {
			b.WriteString(":" + strconv.Itoa(int(cfg.Port)))
		}
	}

	if cfg.Database != "" {
		b.WriteString("/" + cfg.Database)
	}

	if len(cfg.RuntimeParams) == 0 {
		return b.String()
	}

	params := make([]string, 0, len(cfg.RuntimeParams))

	for _, key := range slices.Sorted(maps.Keys(cfg.RuntimeParams)) {
		value := cfg.RuntimeParams[key]
		if sensitiveParams[key] {
			value = "[MASKED]"
		}

		params = append(params, key+"="+value)
	}

	return b.String() + "?" + strings.Join(params, "&")
}

var sensitiveParams = map[string]bool{
	"password":    true,
	"sslkey":      true,
	"sslcert":     true,
	"sslrootcert": true,
	"sslpassword": true,
}
