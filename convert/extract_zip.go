package convert

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zip"
)

// ZipExtractor stages the image entries of a ZIP based archive, in archive order
type ZipExtractor struct{}

func (ZipExtractor) Extract(ctx context.Context, unit Unit, stage *StagingArea, progress ProgressFunc) ([]Page, error) {
	r, err := zip.OpenReader(unit.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	var entries []*zip.File
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !IsImageFile(f.Name) {
			continue
		}
		entries = append(entries, f)
	}

	pages := make([]Page, 0, len(entries))
	for i, f := range entries {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		page, err := extractZipEntry(stage, i+1, f)
		if err != nil {
			return pages, err
		}
		pages = append(pages, page)

		if progress != nil {
			progress(i+1, len(entries))
		}
	}

	return pages, nil
}

func extractZipEntry(stage *StagingArea, index int, f *zip.File) (Page, error) {
	rc, err := f.Open()
	if err != nil {
		return Page{}, fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer func() { _ = rc.Close() }()

	page, err := writePage(stage, index, imageExt(f.Name), rc)
	if err != nil {
		return Page{}, fmt.Errorf("entry %s: %w", f.Name, err)
	}
	return page, nil
}
