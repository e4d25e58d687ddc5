package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/nwaples/rardecode/v2"
)

// RarExtractor stages the image entries of a RAR based archive, in archive order
type RarExtractor struct{}

func (RarExtractor) Extract(ctx context.Context, unit Unit, stage *StagingArea, progress ProgressFunc) ([]Page, error) {
	// RAR archives often carry no directory records, so the target must exist up front
	if err := os.MkdirAll(stage.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	r, err := rardecode.OpenReader(unit.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() { _ = r.Close() }()

	var pages []Page
	for {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		h, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return pages, fmt.Errorf("failed to read archive: %w", err)
		}

		if h.IsDir || !IsImageFile(h.Name) {
			continue
		}

		page, err := writePage(stage, len(pages)+1, imageExt(h.Name), r)
		if err != nil {
			return pages, fmt.Errorf("entry %s: %w", h.Name, err)
		}
		pages = append(pages, page)

		// entry count is not known without a second pass over the archive
		if progress != nil {
			progress(len(pages), 0)
		}
	}

	return pages, nil
}
