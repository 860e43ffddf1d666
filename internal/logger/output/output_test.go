package output

import (
	"bytes"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileWriterRotatesAndCompresses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "app.log")

	w, err := NewFileWriter(FileConfig{Path: path, MaxSize: 16, Compress: true})
	require.NoError(t, err)

	w.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	_, err = w.Write([]byte("0123456789\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefghij\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij\n", string(current))

	archived := path + ".2025-03-01T10-00-00.000.gz"
	f, err := os.Open(archived)
	require.NoError(t, err)

	defer f.Close()

	gr, err := gzip.NewReader(f)
	require.NoError(t, err)

	content, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "0123456789\n", string(content))

	_, err = os.Stat(path + ".2025-03-01T10-00-00.000")
	assert.True(t, os.IsNotExist(err))
}

func TestFileWriterClosed(t *testing.T) {
	w, err := NewFileWriter(FileConfig{Path: filepath.Join(t.TempDir(), "a.log")})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	require.Error(t, err)
}

func TestNewFileWriterRequiresPath(t *testing.T) {
	_, err := NewFileWriter(FileConfig{})
	require.Error(t, err)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, ewrap.New("disk full") }
func (failingWriter) Sync() error               { return ewrap.New("sync failed") }
func (failingWriter) Close() error              { return nil }

func TestMultiWriterPartialFailure(t *testing.T) {
	var buf bytes.Buffer

	mw, err := NewMultiWriter(NewConsoleWriter(&buf), failingWriter{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, mw.Len())

	n, err := mw.Write([]byte("line\n"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "line\n", buf.String())

	require.Error(t, mw.Sync())
}

func TestMultiWriterAllFail(t *testing.T) {
	mw, err := NewMultiWriter(failingWriter{})
	require.NoError(t, err)

	_, err = mw.Write([]byte("x"))
	require.Error(t, err)

	mw.RemoveWriter(failingWriter{})
	assert.Equal(t, 0, mw.Len())
}

func TestNewMultiWriterRequiresWriter(t *testing.T) {
	_, err := NewMultiWriter(nil)
	require.Error(t, err)
}
