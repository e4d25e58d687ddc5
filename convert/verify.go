package convert

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/corona10/goimagehash"
)

// DefaultVerifyThreshold is the largest Hamming distance still counted as the same page
const DefaultVerifyThreshold = 10

// PageDiff describes one page pair that did not match
type PageDiff struct {
	Index    int
	Distance int
	Err      error
}

// VerifyReport compares the pages of a source with those of its converted output
type VerifyReport struct {
	SourcePages int
	OutputPages int
	Threshold   int
	Diffs       []PageDiff
}

// OK reports whether page counts agree and every page pair matched
func (r *VerifyReport) OK() bool {
	return r.SourcePages == r.OutputPages && len(r.Diffs) == 0
}

// ExtractToTemp extracts a unit into a fresh temporary directory. The caller
// removes the returned directory.
func ExtractToTemp(ctx context.Context, unit Unit) ([]Page, string, error) {
	extractor, err := extractorFor(unit.Format)
	if err != nil {
		return nil, "", err
	}

	dir, err := os.MkdirTemp("", "pageconv-*")
	if err != nil {
		return nil, "", fmt.Errorf("failed to create temporary directory: %w", err)
	}

	pages, err := extractor.Extract(ctx, unit, &StagingArea{Dir: dir}, nil)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, "", fmt.Errorf("%w: %s: %v", ErrExtraction, unit.Name(), err)
	}
	return pages, dir, nil
}

// Verify extracts both units and compares their pages by perceptual hash
func Verify(ctx context.Context, source, output Unit, threshold int) (*VerifyReport, error) {
	srcPages, srcDir, err := ExtractToTemp(ctx, source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(srcDir) }()

	outPages, outDir, err := ExtractToTemp(ctx, output)
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(outDir) }()

	report := &VerifyReport{
		SourcePages: len(srcPages),
		OutputPages: len(outPages),
		Threshold:   threshold,
	}

	n := min(len(srcPages), len(outPages))
	for i := 0; i < n; i++ {
		distance, err := comparePages(srcPages[i].Path, outPages[i].Path)
		if err != nil {
			report.Diffs = append(report.Diffs, PageDiff{Index: i + 1, Distance: -1, Err: err})
			continue
		}
		if distance > threshold {
			report.Diffs = append(report.Diffs, PageDiff{Index: i + 1, Distance: distance})
		}
	}

	return report, nil
}

func comparePages(a, b string) (int, error) {
	ha, err := CalculatePerceptualHash(a)
	if err != nil {
		return 0, err
	}
	hb, err := CalculatePerceptualHash(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}

// CalculatePerceptualHash decodes an image file and returns its perceptual hash
func CalculatePerceptualHash(path string) (*goimagehash.ImageHash, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer func() { _ = file.Close() }()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate perceptual hash: %w", err)
	}

	return hash, nil
}
