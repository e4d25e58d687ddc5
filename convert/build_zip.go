package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ZipBuilder writes a ZIP based archive, one entry per file, named by base name
type ZipBuilder struct{}

func (ZipBuilder) Build(ctx context.Context, pages []string, output string) error {
	if err := removeExisting(output); err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return err
		}
		if err := addZipEntry(zw, page); err != nil {
			_ = zw.Close()
			_ = f.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

func addZipEntry(zw *zip.Writer, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	fi, err := src.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	header, err := zip.FileInfoHeader(fi)
	if err != nil {
		return fmt.Errorf("failed to build header for %s: %w", path, err)
	}
	header.Name = filepath.Base(path)
	header.Method = zipMethod(path)

	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s: %w", header.Name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("failed to write %s: %w", header.Name, err)
	}
	return nil
}

// zipMethod stores already compressed formats and deflates the rest
func zipMethod(path string) uint16 {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg", ".png":
		return zip.Store
	}
	return zip.Deflate
}
