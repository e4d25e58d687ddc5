package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Format is a container format tag.
type Format string

const (
	FormatPDF    Format = "pdf"
	FormatCBZ    Format = "cbz"
	FormatCBR    Format = "cbr"
	FormatImages Format = "images"
)

// Formats lists every supported tag in display order
var Formats = []Format{FormatPDF, FormatCBZ, FormatCBR, FormatImages}

// ImageExtensions is the allow-list of page image extensions, without the dot
var ImageExtensions = []string{"bmp", "jpg", "jpeg", "png"}

// ParseFormat converts a user supplied tag into a Format
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Formats, f) {
		return "", fmt.Errorf("%w: unknown format %q (want one of pdf, cbz, cbr, images)", ErrValidation, s)
	}
	return f, nil
}

func (f Format) String() string { return string(f) }

// InputExtensions returns the file extensions (with dot) accepted as input for the format
func (f Format) InputExtensions() []string {
	switch f {
	case FormatPDF:
		return []string{".pdf"}
	case FormatCBZ:
		return []string{".cbz", ".zip"}
	case FormatCBR:
		return []string{".cbr", ".rar"}
	case FormatImages:
		exts := make([]string, len(ImageExtensions))
		for i, e := range ImageExtensions {
			exts[i] = "." + e
		}
		return exts
	}
	return nil
}

// OutputExtension returns the extension given to produced artifacts.
// Image folders have none.
func (f Format) OutputExtension() string {
	switch f {
	case FormatPDF, FormatCBZ, FormatCBR:
		return "." + string(f)
	}
	return ""
}

// Accepts reports whether path carries one of the format's input extensions
func (f Format) Accepts(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(f.InputExtensions(), ext)
}

// IsImageFile checks if the given file extension is on the image allow-list
func IsImageFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path)) // handle cases where extension is upper case
	return slices.Contains(ImageExtensions, strings.TrimPrefix(ext, "."))
}

// ValidatePair checks that a conversion from in to out makes sense
func ValidatePair(in, out Format) error {
	if in == out {
		return fmt.Errorf("%w: input and output formats are both %s", ErrValidation, in)
	}
	return nil
}

// DetectFormat infers the format of an existing path: folders hold images,
// files are recognised by extension
func DetectFormat(path string) (Format, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: cannot access %s: %v", ErrValidation, path, err)
	}
	if fi.IsDir() {
		return FormatImages, nil
	}
	for _, f := range []Format{FormatPDF, FormatCBZ, FormatCBR} {
		if f.Accepts(path) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: cannot tell the format of %s", ErrValidation, path)
}
