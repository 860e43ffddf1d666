package pg

import (
	"context"
	"embed"
	"io/fs"
	"slices"
	"strings"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/jackc/pgx/v5"

	"github.com/tamfolio/gatewayshield-admin-sub000/internal/logger"
)

//go:embed migrations/*.up.sql
var migrationFS embed.FS

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type migration struct {
	version string
	sql     string
}

// migrations returns the embedded migrations ordered by version.
func migrations() ([]migration, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.up.sql")
	if err != nil {
		return nil, ewrap.Wrap(err, "listing migrations")
	}

	slices.Sort(names)

	out := make([]migration, 0, len(names))

	for _, name := range names {
		body, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return nil, ewrap.Wrap(err, "reading migration").WithMetadata("file", name)
		}

		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".up.sql")
		out = append(out, migration{version: version, sql: string(body)})
	}

	return out, nil
}

// Migrate applies the pending embedded migrations in one transaction.
func (m *Manager) Migrate(ctx context.Context) error {
	pending, err := migrations()
	if err != nil {
		return err
	}

	return m.Transaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		applied, err := apply(ctx, tx, pending)
		if err != nil {
			return err
		}

		if len(applied) > 0 {
			m.logger.WithFields(logger.F("versions", applied)).Info("archive migrations applied")
		}

		return nil
	})
}

func apply(ctx context.Context, db DBTX, pending []migration) ([]string, error) {
	if _, err := db.Exec(ctx, migrationsTable); err != nil {
		return nil, ewrap.Wrap(err, "creating schema_migrations")
	}

	var applied []string

	for _, mig := range pending {
		var exists bool

		err := db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)`, mig.version).Scan(&exists)
		if err != nil {
			return nil, ewrap.Wrap(err, "checking migration").WithMetadata("version", mig.version)
		}

		if exists {
			continue
		}

		if _, err := db.Exec(ctx, mig.sql); err != nil {
			return nil, ewrap.Wrap(err, "applying migration").WithMetadata("version", mig.version)
		}

		if _, err := db.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, mig.version); err != nil {
			return nil, ewrap.Wrap(err, "recording migration").WithMetadata("version", mig.version)
		}

		applied = append(applied, mig.version)
	}

	return applied, nil
}
