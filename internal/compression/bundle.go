// Package compression writes and reads analysis bundles: tar archives
// compressed with xz or gzip holding a report and its images.
package compression

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/landtint/internal/security"
)

// MaxEntrySize limits each extracted file to guard against decompression bombs.
const MaxEntrySize = 256 * 1024 * 1024

// Format is an archive compression format.
type Format string

const (
	FormatTarXz Format = "tar.xz"
	FormatTarGz Format = "tar.gz"
)

// FormatFromPath picks the format from a file name suffix.
func FormatFromPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return FormatTarXz, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	default:
		return "", fmt.Errorf("unsupported bundle extension: %s (use .tar.xz or .tar.gz)", filepath.Base(path))
	}
}

// Entry is one file in a bundle.
type Entry struct {
	Name string
	Data []byte
}

// Write archives entries to w in the given format. Entry names must be
// relative paths that stay inside the archive root.
func Write(w io.Writer, format Format, entries []Entry) error {
	var (
		cw  io.WriteCloser
		err error
	)
	switch format {
	case FormatTarXz:
		cw, err = xz.NewWriter(w)
		if err != nil {
			return fmt.Errorf("failed to create xz writer: %w", err)
		}
	case FormatTarGz:
		cw = gzip.NewWriter(w)
	default:
		return fmt.Errorf("unsupported bundle format: %s", format)
	}

	tw := tar.NewWriter(cw)
	now := time.Now()
	for _, e := range entries {
		if !filepath.IsLocal(e.Name) {
			return fmt.Errorf("invalid bundle entry name: %q", e.Name)
		}
		hdr := &tar.Header{
			Name:    filepath.ToSlash(e.Name),
			Mode:    0o644,
			Size:    int64(len(e.Data)),
			ModTime: now,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("failed to write header for %s: %w", e.Name, err)
		}
		if _, err := tw.Write(e.Data); err != nil {
			return fmt.Errorf("failed to write %s: %w", e.Name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finish tar archive: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finish %s stream: %w", format, err)
	}
	return nil
}

// WriteFile writes a bundle to path, choosing the format from its suffix.
func WriteFile(path string, entries []Entry) (err error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil { // #nosec G301 - Output directory needs standard permissions
			return fmt.Errorf("failed to create bundle directory: %w", err)
		}
	}

	out, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create bundle: %w", err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close bundle: %w", closeErr))
		}
	}()

	return Write(out, format, entries)
}

// Read returns every regular file in a bundle.
func Read(r io.Reader, format Format) ([]Entry, error) {
	var entries []Entry
	err := walk(r, format, func(hdr *tar.Header, body io.Reader) error {
		data, err := io.ReadAll(security.NewLimitedReader(body, MaxEntrySize))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", hdr.Name, err)
		}
		entries = append(entries, Entry{Name: hdr.Name, Data: data})
		return nil
	})
	return entries, err
}

// Extract unpacks a bundle into destDir and returns the written paths.
// Entries that would escape destDir are rejected.
func Extract(r io.Reader, format Format, destDir string) ([]string, error) {
	var paths []string
	err := walk(r, format, func(hdr *tar.Header, body io.Reader) error {
		name := filepath.FromSlash(hdr.Name)
		if err := security.ValidateFilePath(name, destDir); err != nil {
			return fmt.Errorf("refusing to extract %s: %w", hdr.Name, err)
		}
		destPath := filepath.Join(destDir, name)
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil { // #nosec G301 - Output directory needs standard permissions
			return fmt.Errorf("failed to create directory for %s: %w", hdr.Name, err)
		}

		out, err := os.Create(destPath) // #nosec G304 - Path validated against destDir
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", destPath, err)
		}
		_, copyErr := io.Copy(out, security.NewLimitedReader(body, MaxEntrySize))
		closeErr := out.Close()
		if copyErr != nil {
			return fmt.Errorf("failed to extract %s: %w", hdr.Name, copyErr)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close %s: %w", destPath, closeErr)
		}
		paths = append(paths, destPath)
		return nil
	})
	return paths, err
}

// walk calls fn for each regular file in the archive.
func walk(r io.Reader, format Format, fn func(*tar.Header, io.Reader) error) error {
	var src io.Reader
	switch format {
	case FormatTarXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return fmt.Errorf("failed to create xz reader: %w", err)
		}
		src = xzr
	case FormatTarGz:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gzr.Close()
		src = gzr
	default:
		return fmt.Errorf("unsupported bundle format: %s", format)
	}

	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar archive: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		if err := fn(hdr, tr); err != nil {
			return err
		}
	}
}
