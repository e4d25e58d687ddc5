package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Page is one ordered page image, staged or already on disk
type Page struct {
	// Index is 1-based and contiguous within a unit
	Index int
	Path  string
	// Ext is the extension the page carried in its source, with dot
	Ext string
}

// ProgressFunc receives per-unit progress. total is 0 when unknown.
type ProgressFunc func(done, total int)

// Extractor produces the ordered pages of one unit
type Extractor interface {
	Extract(ctx context.Context, unit Unit, stage *StagingArea, progress ProgressFunc) ([]Page, error)
}

// extractorFor is the single dispatch point from input format to extractor
func extractorFor(f Format) (Extractor, error) {
	switch f {
	case FormatPDF:
		return PdfExtractor{}, nil
	case FormatCBZ:
		return ZipExtractor{}, nil
	case FormatCBR:
		return RarExtractor{}, nil
	case FormatImages:
		return FolderSource{}, nil
	}
	return nil, fmt.Errorf("%w: no extractor for format %q", ErrValidation, f)
}

// needsStaging reports whether units of the format extract into a staging area
func needsStaging(f Format) bool {
	return f != FormatImages
}

// pageName gives the zero padded file name for a page index
func pageName(index int, ext string) string {
	return fmt.Sprintf("%03d%s", index, ext)
}

// writePage copies r into the staging area under the next page name
func writePage(stage *StagingArea, index int, ext string, r io.Reader) (Page, error) {
	path := stage.Path(pageName(index, ext))

	out, err := os.Create(path)
	if err != nil {
		return Page{}, fmt.Errorf("failed to create %s: %w", filepath.Base(path), err)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return Page{}, fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	if err := out.Close(); err != nil {
		return Page{}, fmt.Errorf("failed to close %s: %w", filepath.Base(path), err)
	}

	return Page{Index: index, Path: path, Ext: ext}, nil
}

// imageExt returns the lower-cased extension of an archive entry name
func imageExt(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// FolderSource treats an already expanded folder of images as the page
// sequence. Nothing is copied.
type FolderSource struct{}

func (FolderSource) Extract(ctx context.Context, unit Unit, _ *StagingArea, progress ProgressFunc) ([]Page, error) {
	members := append([]string(nil), unit.Members...)
	sortPathsByName(members)

	pages := make([]Page, 0, len(members))
	for i, m := range members {
		if _, err := os.Stat(m); err != nil {
			return pages, fmt.Errorf("cannot access %s: %w", m, err)
		}
		pages = append(pages, Page{Index: i + 1, Path: m, Ext: imageExt(m)})
		if progress != nil {
			progress(i+1, len(members))
		}
	}
	return pages, nil
}
