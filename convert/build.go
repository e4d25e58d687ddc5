package convert

import (
	"context"
	"fmt"
	"os"
)

// Builder packs an ordered list of page images into one output artifact
type Builder interface {
	Build(ctx context.Context, pages []string, output string) error
}

// BuildOptions carries the settings builders need from configuration
type BuildOptions struct {
	// RarPath is the external packer executable used for cbr output
	RarPath string
	// RarArgs are the packer arguments placed before the output and input paths
	RarArgs string
}

// DefaultRarArgs add files without their directory part, quietly, answering yes to prompts
const DefaultRarArgs = "a -ep1 -idq -y"

// builderFor is the single dispatch point from output format to builder.
// Image output has no builder: the staged pages are the result.
func builderFor(f Format, opts BuildOptions) (Builder, error) {
	switch f {
	case FormatCBZ:
		return ZipBuilder{}, nil
	case FormatCBR:
		return NewRarBuilder(opts.RarPath, opts.RarArgs)
	case FormatPDF:
		return PdfBuilder{}, nil
	}
	return nil, fmt.Errorf("%w: no builder for format %q", ErrValidation, f)
}

// removeExisting deletes a previous output so builders always start fresh
func removeExisting(output string) error {
	if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove existing %s: %w", output, err)
	}
	return nil
}

func pagePaths(pages []Page) []string {
	paths := make([]string, len(pages))
	for i, p := range pages {
		paths[i] = p.Path
	}
	return paths
}
