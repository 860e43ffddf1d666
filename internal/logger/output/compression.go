package output

import (
	"compress/gzip"
	"io"
	"os"
	"path/filepath"

	"github.com/hyp3rd/ewrap/pkg/ewrap"
)

// compressFile gzips path into path.gz and removes the original once the
// archive has been verified. On failure the original is kept.
func compressFile(path string) error {
	compressedPath := path + ".gz"

	if err := writeGzip(path, compressedPath); err != nil {
		_ = os.Remove(compressedPath)

		return err
	}

	if err := verifyCompressedFile(compressedPath); err != nil {
		_ = os.Remove(compressedPath)

		return err
	}

	if err := os.Remove(path); err != nil {
		_ = os.Remove(compressedPath)

		return ewrap.Wrapf(err, "removing original file").
			WithMetadata("path", path)
	}

	return nil
}

func writeGzip(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return ewrap.Wrapf(err, "opening source file").
			WithMetadata("path", src)
	}
	defer source.Close()

	//nolint:mnd
	compressed, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return ewrap.Wrapf(err, "creating compressed file").
			WithMetadata("path", dst)
	}
	defer compressed.Close()

	gz, err := gzip.NewWriterLevel(compressed, gzip.BestCompression)
	if err != nil {
		return ewrap.Wrapf(err, "creating gzip writer")
	}

	gz.Name = filepath.Base(src)

	if _, err := io.Copy(gz, source); err != nil {
		return ewrap.Wrapf(err, "copying file content")
	}

	if err := gz.Close(); err != nil {
		return ewrap.Wrapf(err, "closing gzip writer")
	}

	if err := compressed.Sync(); err != nil {
		return ewrap.Wrapf(err, "syncing compressed file")
	}

	return nil
}

func verifyCompressedFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return ewrap.Wrapf(err, "opening compressed file for verification").
			WithMetadata("path", path)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return ewrap.Wrapf(err, "verifying gzip format").
			WithMetadata("path", path)
	}

	return gr.Close()
}
