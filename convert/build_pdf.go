package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	_ "golang.org/x/image/bmp"
)

func init() {
	// keep pdfcpu from creating its config directory under the user's home
	api.DisableConfigDir()
}

// PdfBuilder writes one page per image. The page size is taken from the
// first image and used for every page; later images are fitted onto that
// size, centered, rather than getting pages of their own dimensions.
type PdfBuilder struct{}

func (PdfBuilder) Build(ctx context.Context, pages []string, output string) error {
	if len(pages) == 0 {
		return errors.New("no pages to write")
	}

	w, h, err := ImageSize(pages[0])
	if err != nil {
		return err
	}

	if err := removeExisting(output); err != nil {
		return err
	}

	imp, err := api.Import(fmt.Sprintf("dimensions:%d %d, position:c, scalefactor:1.0", w, h), types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to configure page size: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := api.ImportImagesFile(pages, output, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	return nil
}

// ImageSize reads the pixel dimensions of an image without decoding it fully
func ImageSize(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read image size of %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, nil
}
