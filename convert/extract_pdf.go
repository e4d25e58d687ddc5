package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfImageExt is the extension every extracted PDF stream is stored under.
// Streams are written verbatim without checking their codec, so a page that
// was stored with a non-JPEG filter still ends up as .jpg.
const pdfImageExt = ".jpg"

// PdfExtractor pulls embedded image streams out of a PDF, page by page
type PdfExtractor struct{}

func (PdfExtractor) Extract(ctx context.Context, unit Unit, stage *StagingArea, progress ProgressFunc) ([]Page, error) {
	pdfCtx, err := readPDF(unit.Source)
	if err != nil {
		return nil, err
	}

	pageCount := pdfCtx.PageCount
	var pages []Page

	for nr := 1; nr <= pageCount; nr++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		images, err := pageImages(pdfCtx, nr)
		if err != nil {
			return pages, err
		}

		for _, img := range images {
			page, err := writePage(stage, len(pages)+1, pdfImageExt, bytes.NewReader(img.Raw))
			if err != nil {
				return pages, err
			}
			pages = append(pages, page)
		}

		if progress != nil {
			progress(nr, pageCount)
		}
	}

	return pages, nil
}

// PageImages lists the image streams found on one PDF page
type PageImages struct {
	Page   int
	Images []ImageStream
}

// InspectPDF reports the image streams of every page without writing anything
func InspectPDF(path string) ([]PageImages, error) {
	pdfCtx, err := readPDF(path)
	if err != nil {
		return nil, err
	}

	result := make([]PageImages, 0, pdfCtx.PageCount)
	for nr := 1; nr <= pdfCtx.PageCount; nr++ {
		images, err := pageImages(pdfCtx, nr)
		if err != nil {
			return result, err
		}
		result = append(result, PageImages{Page: nr, Images: images})
	}
	return result, nil
}

func pageImages(pdfCtx *model.Context, nr int) ([]ImageStream, error) {
	pageDict, _, _, err := pdfCtx.PageDict(nr, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", nr, err)
	}
	return WalkImages(pdfCtx, PageResources(pdfCtx, pageDict)), nil
}

// readPDF loads a PDF's object graph without the strict validation pass, so
// slightly broken files can still be walked
func readPDF(path string) (*model.Context, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer func() { _ = f.Close() }()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(f, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PDF: %w", err)
	}

	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, fmt.Errorf("failed to count pages: %w", err)
	}

	return pdfCtx, nil
}
