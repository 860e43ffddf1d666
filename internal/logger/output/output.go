package output

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

const (
	defaultMaxSizeMB = 10
	bytesPerMB       = 1024 * 1024
	rotateStamp      = "2006-01-02T15-04-05.000"
)

// Writer defines an interface for log output destinations.
type Writer interface {
	io.Writer
	// Sync ensures all data is written.
	Sync() error
	// Close releases any resources.
	Close() error
}

// FileWriter implements Writer for file-based logging with size rotation.
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	path     string
	mode     os.FileMode
	maxSize  int64
	size     int64
	compress bool
	now      func() time.Time
	pending  sync.WaitGroup
	errs     chan error
}

// FileConfig holds configuration for file output.
type FileConfig struct {
	// Path is the log file path
	Path string
	// MaxSize is the maximum size in bytes before rotation
	MaxSize int64
	// Compress determines if rotated files should be gzipped
	Compress bool
	// FileMode sets the permissions for new log files
	FileMode os.FileMode
}

// NewFileWriter creates a new file-based log writer.
func NewFileWriter(config FileConfig) (*FileWriter, error) {
	if config.Path == "" {
		return nil, ewrap.New("log file path is required")
	}

	if config.MaxSize <= 0 {
		config.MaxSize = defaultMaxSizeMB * bytesPerMB
	}

	if config.FileMode == 0 {
		config.FileMode = 0o644
	}

	dir := filepath.Dir(config.Path)
	//nolint:mnd
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ewrap.Wrapf(err, "creating log directory").
			WithMetadata("path", dir)
	}

	file, err := os.OpenFile(config.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, config.FileMode)
	if err != nil {
		return nil, ewrap.Wrapf(err, "opening log file").
			WithMetadata("path", config.Path)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()

		return nil, ewrap.Wrapf(err, "getting file stats").
			WithMetadata("path", config.Path)
	}

	return &FileWriter{
		file:     file,
		path:     config.Path,
		mode:     config.FileMode,
		maxSize:  config.MaxSize,
		size:     info.Size(),
		compress: config.Compress,
		now:      time.Now,
		errs:     make(chan error, 1),
	}, nil
}

// Write implements io.Writer.
func (w *FileWriter) Write(data []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, ewrap.New("log file is closed").WithMetadata("path", w.path)
	}

	if w.size > 0 && w.size+int64(len(data)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, ewrap.Wrapf(err, "rotating log file")
		}
	}

	n, err := w.file.Write(data)
	w.size += int64(n)

	if err != nil {
		return n, ewrap.Wrap(err, "writing to log file")
	}

	return n, nil
}

// rotate moves the current file to a timestamped backup and reopens path.
func (w *FileWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return ewrap.Wrapf(err, "closing current log file")
	}

	backupPath := fmt.Sprintf("%s.%s", w.path, w.now().Format(rotateStamp))
	if err := os.Rename(w.path, backupPath); err != nil {
		return ewrap.Wrapf(err, "renaming log file").
			WithMetadata("from", w.path).
			WithMetadata("to", backupPath)
	}

	if w.compress {
		w.pending.Add(1)

		go func() {
			defer w.pending.Done()

			if err := compressFile(backupPath); err != nil {
				select {
				case w.errs <- err:
				default:
				}
			}
		}()
	}

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, w.mode)
	if err != nil {
		w.file = nil

		return ewrap.Wrapf(err, "creating new log file")
	}

	w.file = file
	w.size = 0

	return nil
}

// Sync flushes the current file.
func (w *FileWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}

	if err := w.file.Sync(); err != nil {
		return ewrap.Wrapf(err, "syncing log file")
	}

	return nil
}

// Close waits for background compression, then syncs and closes the file.
// A compression failure from an earlier rotation is reported here.
func (w *FileWriter) Close() error {
	w.pending.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()

	var compressErr error

	select {
	case compressErr = <-w.errs:
	default:
	}

	if w.file == nil {
		return compressErr
	}

	if err := w.file.Sync(); err != nil {
		return ewrap.Wrapf(err, "final sync before close")
	}

	if err := w.file.Close(); err != nil {
		return ewrap.Wrapf(err, "closing log file")
	}

	w.file = nil

	return compressErr
}

// ConsoleWriter implements Writer for stdout/stderr style destinations.
type ConsoleWriter struct {
	out io.Writer
}

// NewConsoleWriter wraps out, defaulting to os.Stderr.
func NewConsoleWriter(out io.Writer) *ConsoleWriter {
	if out == nil {
		out = os.Stderr
	}

	return &ConsoleWriter{out: out}
}

// Write writes p to the underlying writer.
func (w *ConsoleWriter) Write(p []byte) (int, error) {
	n, err := w.out.Write(p)
	if err != nil {
		return n, ewrap.Wrap(err, "writing to console output")
	}

	return n, nil
}

// Sync syncs the underlying writer, ignoring the error terminals return.
func (w *ConsoleWriter) Sync() error {
	if syncer, ok := w.out.(interface{ Sync() error }); ok {
		if err := syncer.Sync(); err != nil {
			if strings.Contains(err.Error(), "inappropriate ioctl for device") ||
				errors.Is(err, os.ErrInvalid) {
				return nil
			}

			return ewrap.Wrapf(err, "syncing console output")
		}
	}

	return nil
}

// Close is a no-op for the process streams and closes anything else.
func (w *ConsoleWriter) Close() error {
	if w.out == os.Stdout || w.out == os.Stderr {
		return nil
	}

	if closer, ok := w.out.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			return ewrap.Wrapf(err, "closing console output")
		}
	}

	return nil
}

// MultiWriter fans writes out to several writers.
type MultiWriter struct {
	mu      sync.RWMutex
	writers []Writer
}

// NewMultiWriter creates a writer over the non-nil writers given.
func NewMultiWriter(writers ...Writer) (*MultiWriter, error) {
	valid := make([]Writer, 0, len(writers))

	for _, w := range writers {
		if w != nil {
			valid = append(valid, w)
		}
	}

	if len(valid) == 0 {
		return nil, ewrap.New("at least one writer is required")
	}

	return &MultiWriter{writers: valid}, nil
}

// Write sends payload to every writer. It reports success when at least one
// writer took the full payload; otherwise the collected failures are returned.
func (mw *MultiWriter) Write(payload []byte) (int, error) {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	results := make([]WriteResult, 0, len(mw.writers))

	for i, w := range mw.writers {
		n, err := w.Write(payload)
		results = append(results, WriteResult{
			Writer: w,
			Name:   fmt.Sprintf("%T[%d]", w, i),
			Bytes:  n,
			Err:    err,
		})
	}

	report := summarize(results, len(payload))
	if report.Succeeded == 0 {
		return 0, report.Err()
	}

	return len(payload), nil
}

// Sync syncs every writer and reports the ones that failed.
func (mw *MultiWriter) Sync() error {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	return mw.each("sync", func(w Writer) error { return w.Sync() })
}

// Close closes every writer; the MultiWriter is unusable afterwards.
func (mw *MultiWriter) Close() error {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	err := mw.each("close", func(w Writer) error { return w.Close() })
	mw.writers = nil

	return err
}

func (mw *MultiWriter) each(op string, fn func(Writer) error) error {
	var failures []string

	for i, w := range mw.writers {
		if err := fn(w); err != nil {
			failures = append(failures, fmt.Sprintf("%T[%d]: %v", w, i, err))
		}
	}

	if len(failures) > 0 {
		return ewrap.New(op+" operation partially failed").
			WithMetadata("failures", failures).
			WithMetadata("total_writers", len(mw.writers))
	}

	return nil
}

// AddWriter appends a writer.
func (mw *MultiWriter) AddWriter(writer Writer) error {
	if writer == nil {
		return ewrap.New("cannot add nil writer")
	}

	mw.mu.Lock()
	defer mw.mu.Unlock()

	mw.writers = append(mw.writers, writer)

	return nil
}

// RemoveWriter drops writer if present.
func (mw *MultiWriter) RemoveWriter(writer Writer) {
	mw.mu.Lock()
	defer mw.mu.Unlock()

	for i, existing := range mw.writers {
		if existing == writer {
			mw.writers = append(mw.writers[:i], mw.writers[i+1:]...)

			return
		}
	}
}

// Len reports how many writers are attached.
func (mw *MultiWriter) Len() int {
	mw.mu.RLock()
	defer mw.mu.RUnlock()

	return len(mw.writers)
}
