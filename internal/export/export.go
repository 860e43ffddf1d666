// Package export writes the filtered rows of a list screen to CSV, XLSX or
// PDF files.
package export

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// Format is an export file format.
type Format string

const (
	// CSV is comma separated text with every value quoted.
	CSV Format = "csv"
	// XLSX is an Excel workbook.
	XLSX Format = "xlsx"
	// PDF is a printable table.
	PDF Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, XLSX, PDF}

// ErrNothingToExport is returned for an empty row set.
var ErrNothingToExport = errors.New("nothing to export")

// ParseFormat accepts a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case CSV, XLSX, PDF:
		return f, nil
	case "":
		return CSV, nil
	default:
		return "", ewrap.New("unsupported export format").WithMetadata("format", name)
	}
}

// Column is one exported column.
type Column[T any] struct {
	Header string
	Value  func(T) any
}

// Exporter renders rows of T with a fixed column list.
type Exporter[T any] struct {
	// Prefix starts the file name, e.g. "audit-logs".
	Prefix string
	// Title heads PDF pages and names the XLSX sheet.
	Title   string
	Columns []Column[T]
	Now     func() time.Time
}

// CanExport reports whether rows has anything to write.
func CanExport[T any](rows []T) bool { return len(rows) > 0 }

// FileName returns "<prefix>-<YYYY-MM-DD>.<format>" for the current date.
func (e Exporter[T]) FileName(format Format) string {
	prefix := sanitizeFileComponent(e.Prefix)

	return prefix + "-" + e.now().Format(time.DateOnly) + "." + string(format)
}

// Headers returns the column headers in order.
func (e Exporter[T]) Headers() []string {
	out := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		out[i] = c.Header
	}

	return out
}

// Record renders one row as text, one value per column.
func (e Exporter[T]) Record(row T) []string {
	out := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		out[i] = FormatValue(c.Value(row))
	}

	return out
}

// Write renders rows in format to w. Rows are only read.
func (e Exporter[T]) Write(w io.Writer, format Format, rows []T) error {
	if !CanExport(rows) {
		return ErrNothingToExport
	}

	if len(e.Columns) == 0 {
		return ewrap.New("export has no columns").WithMetadata("prefix", e.Prefix)
	}

	switch format {
	case CSV:
		return e.WriteCSV(w, rows)
	case XLSX:
		return e.WriteXLSX(w, rows)
	case PDF:
		return e.WritePDF(w, rows)
	default:
		return ewrap.New("unsupported export format").WithMetadata("format", string(format))
	}
}

func (e Exporter[T]) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}

	return time.Now()
}

func (e Exporter[T]) title() string {
	if e.Title != "" {
		return e.Title
	}

	return e.Prefix
}

func sanitizeFileComponent(value string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(strings.TrimSpace(value)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	result := strings.Trim(b.String(), "-")
	if result == "" {
		return "export"
	}

	return result
}
