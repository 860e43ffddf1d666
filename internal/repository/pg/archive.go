package pg

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// DefaultRecentLimit is the number of archive entries Recent returns when
// no limit is given.
const DefaultRecentLimit = 20

// ExportRecord is one archived export file.
type ExportRecord struct {
	ID        uuid.UUID
	Screen    string
	Format    string
	Path      string
	Rows      int
	Bytes     int64
	Checksum  string
	Query     string
	CreatedAt time.Time
}

// ArchiveStore records written exports.
type ArchiveStore struct {
	db DBTX
}

// NewArchiveStore returns a store over db, usually Manager.Pool().
func NewArchiveStore(db DBTX) *ArchiveStore {
	return &ArchiveStore{db: db}
}

// Record inserts rec, assigning an id when it has none, and returns it with
// the stored creation time.
func (s *ArchiveStore) Record(ctx context.Context, rec ExportRecord) (ExportRecord, error) {
	if strings.TrimSpace(rec.Screen) == "" || strings.TrimSpace(rec.Path) == "" {
		return ExportRecord{}, ewrap.New("archive record needs a screen and a path").
			WithMetadata("screen", rec.Screen).
			WithMetadata("path", rec.Path)
	}

	if rec.Rows < 0 || rec.Bytes < 0 {
		return ExportRecord{}, ewrap.New("archive record sizes must not be negative").
			WithMetadata("rows", rec.Rows).
			WithMetadata("bytes", rec.Bytes)
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO export_archive (id, screen, format, path, rows, bytes, checksum, query)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rec.ID, rec.Screen, rec.Format, rec.Path, rec.Rows, rec.Bytes, rec.Checksum, rec.Query,
	).Scan(&rec.CreatedAt)
	if err != nil {
		return ExportRecord{}, ewrap.Wrap(err, "inserting export record").WithMetadata("screen", rec.Screen)
	}

	return rec, nil
}

// Recent lists the newest records first. An empty screen lists every screen.
func (s *ArchiveStore) Recent(ctx context.Context, screen string, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, screen, format, path, rows, bytes, checksum, query, created_at
		FROM export_archive
		WHERE $1 = '' OR screen = $1
		ORDER BY created_at DESC
		LIMIT $2`, screen, limit)
	if err != nil {
		return nil, ewrap.Wrap(err, "listing export records")
	}
	defer rows.Close()

	records := make([]ExportRecord, 0, limit)

	for rows.Next() {
		var rec ExportRecord

		err := rows.Scan(&rec.ID, &rec.Screen, &rec.Format, &rec.Path, &rec.Rows,
			&rec.Bytes, &rec.Checksum, &rec.Query, &rec.CreatedAt)
		if err != nil {
			return nil, ewrap.Wrap(err, "scanning export record")
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, ewrap.Wrap(err, "iterating export records")
	}

	return records, nil
}
