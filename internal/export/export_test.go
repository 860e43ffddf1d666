package export

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type entry struct {
	ID      int
	Title   string
	Note    *string
	Created time.Time
}

func strPtr(s string) *string { return &s }

var fixedNow = func() time.Time { return time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC) }

func entryExporter() Exporter[entry] {
	return Exporter[entry]{
		Prefix: "Audit Logs",
		Title:  "Audit logs",
		Now:    fixedNow,
		Columns: []Column[entry]{
			{Header: "ID", Value: func(e entry) any { return e.ID }},
			{Header: "Title", Value: func(e entry) any { return e.Title }},
			{Header: "Note", Value: func(e entry) any { return e.Note }},
			{Header: "Created", Value: func(e entry) any { return e.Created }},
		},
	}
}

func sampleEntries() []entry {
	return []entry{
		{ID: 1, Title: `Robbery, "armed"`, Note: strPtr("line one\nline two"), Created: fixedNow()},
		{ID: 2, Title: "Noise"},
	}
}

func TestWriteCSVQuotesEverything(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, entryExporter().Write(&buf, CSV, sampleEntries()))

	want := "\"ID\",\"Title\",\"Note\",\"Created\"\n" +
		"\"1\",\"Robbery, \"\"armed\"\"\",\"line one\nline two\",\"2024-05-17T09:30:00Z\"\n" +
		"\"2\",\"Noise\",\"\",\"\"\n"
	assert.Equal(t, want, buf.String())

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, `Robbery, "armed"`, records[1][1])
	assert.Equal(t, "line one\nline two", records[1][2])
}

func TestWriteRejectsEmptyRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.ErrorIs(t, entryExporter().Write(&buf, CSV, nil), ErrNothingToExport)
	assert.Zero(t, buf.Len())
	assert.False(t, CanExport([]entry{}))

	_, err := entryExporter().Save(t.TempDir(), CSV, nil)
	require.ErrorIs(t, err, ErrNothingToExport)
}

func TestFileName(t *testing.T) {
	t.Parallel()

	e := entryExporter()
	assert.Equal(t, "audit-logs-2024-05-17.csv", e.FileName(CSV))
	assert.Equal(t, "audit-logs-2024-05-17.pdf", e.FileName(PDF))

	e.Prefix = "///"
	assert.Equal(t, "export-2024-05-17.xlsx", e.FileName(XLSX))
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Format{"csv": CSV, " XLSX ": XLSX, "pdf": PDF, "": CSV} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseFormat("docx")
	require.Error(t, err)
}

func TestWriteXLSX(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	require.NoError(t, entryExporter().Write(&buf, XLSX, sampleEntries()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)

	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Audit logs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Title", "Note", "Created"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, `Robbery, "armed"`, rows[1][1])
	assert.Equal(t, "Noise", rows[2][1])
}

func TestWritePDF(t *testing.T) {
	t.Parallel()

	rows := make([]entry, 120)
	for i := range rows {
		rows[i] = entry{ID: i + 1, Title: strings.Repeat("very long title ", 10) + "é"}
	}

	var buf bytes.Buffer

	require.NoError(t, entryExporter().Write(&buf, PDF, rows))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestSave(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "exports")

	res, err := entryExporter().Save(dir, CSV, sampleEntries())
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "audit-logs-2024-05-17.csv"), res.Path)
	assert.Equal(t, 2, res.Rows)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)

	sum := sha256.Sum256(data)
	assert.Equal(t, hex.EncodeToString(sum[:]), res.Checksum)
	assert.Equal(t, int64(len(data)), res.Bytes)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	var nilPtr *string

	assert.Empty(t, FormatValue(nil))
	assert.Empty(t, FormatValue(nilPtr))
	assert.Empty(t, FormatValue(time.Time{}))
	assert.Equal(t, "x", FormatValue(strPtr("x")))
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, `["a","b"]`, FormatValue([]string{"a", "b"}))
	assert.Equal(t, "2024-05-17T09:30:00Z", FormatValue(fixedNow().In(time.FixedZone("WAT", 3600))))
}
