// Package archive packages an account's downloaded items into one file.
package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"rdscraper/pkg/logger"
)

// Packager turns a directory of items into a single archive at dest and
// returns the number of files packed.
type Packager interface {
	Pack(ctx context.Context, dir, dest string) (int, error)
}

// ZipPackager writes a flat zip archive of a directory's regular files.
// Subdirectories and files ending in ".tmp" are skipped.
type ZipPackager struct {
	logger logger.Logger
}

// NewZipPackager creates a ZipPackager
func NewZipPackager(log logger.Logger) *ZipPackager {
	return &ZipPackager{logger: logger.OrDefault(log)}
}

// Pack replaces dest atomically; an interrupted Pack leaves any previous
// archive untouched.
func (p *ZipPackager) Pack(ctx context.Context, dir, dest string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || strings.HasSuffix(entry.Name(), ".tmp") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	tempPath := dest + ".tmp"
	out, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			zw.Close()
			out.Close()
			os.Remove(tempPath)
			return 0, err
		}
		if err := addFile(zw, filepath.Join(dir, name)); err != nil {
			zw.Close()
			out.Close()
			os.Remove(tempPath)
			return 0, err
		}
	}

	if err := zw.Close(); err != nil {
		out.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tempPath, dest); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("failed to move archive into place: %w", err)
	}

	p.logger.InfoWithFields("archive written", map[string]interface{}{
		"path":  dest,
		"files": len(names),
	})

	return len(names), nil
}

func addFile(zw *zip.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", path, err)
	}
	header.Name = filepath.Base(path)
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", path, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	return nil
}
