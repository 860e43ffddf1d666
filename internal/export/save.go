package export

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// Result describes a saved export file.
type Result struct {
	Path     string
	Format   Format
	Rows     int
	Bytes    int64
	Checksum string
}

type countingWriter struct {
	count int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.count += int64(len(p))

	return len(p), nil
}

// Save writes rows to dir/FileName(format). The file is written to a
// temporary name first and renamed into place once complete.
func (e Exporter[T]) Save(dir string, format Format, rows []T) (Result, error) {
	if !CanExport(rows) {
		return Result{}, ErrNothingToExport
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, ewrap.Wrap(err, "creating export directory").WithMetadata("dir", dir)
	}

	finalPath := filepath.Join(dir, e.FileName(format))

	tmp, err := os.CreateTemp(dir, "."+sanitizeFileComponent(e.Prefix)+"-*.tmp")
	if err != nil {
		return Result{}, ewrap.Wrap(err, "creating temp file").WithMetadata("dir", dir)
	}

	tmpPath := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	hash := sha256.New()
	counter := &countingWriter{}

	if err := e.Write(io.MultiWriter(tmp, hash, counter), format, rows); err != nil {
		return Result{}, err
	}

	if err := tmp.Sync(); err != nil {
		return Result{}, ewrap.Wrap(err, "syncing export file").WithMetadata("path", tmpPath)
	}

	if err := tmp.Close(); err != nil {
		return Result{}, ewrap.Wrap(err, "closing export file").WithMetadata("path", tmpPath)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		committed = true

		return Result{}, ewrap.Wrap(err, "moving export into place").WithMetadata("path", finalPath)
	}

	committed = true

	return Result{
		Path:     finalPath,
		Format:   format,
		Rows:     len(rows),
		Bytes:    counter.count,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}
