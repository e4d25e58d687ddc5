package convert

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// testImage draws a simple two tone pattern so perceptual hashes differ per seed
func testImage(w, h int, seed uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{R: seed, G: 255 - seed, B: 128, A: 255}
			if (x/(int(seed%7)+4)+y/8)%2 == 0 {
				c = color.RGBA{R: 255 - seed, G: seed, B: 32, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func writeJPEG(t *testing.T, path string, w, h int, seed uint8) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, testImage(w, h, seed), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode JPEG: %v", err)
	}
}

func writePNG(t *testing.T, path string, w, h int, seed uint8) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, testImage(w, h, seed)); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
}

// writeJPEGs creates n numbered JPEG files in dir and returns their paths
func writeJPEGs(t *testing.T, dir string, n int) []string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("Failed to create %s: %v", dir, err)
	}
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		paths[i] = filepath.Join(dir, pageName(i+1, ".jpg"))
		writeJPEG(t, paths[i], 64, 48, uint8(20*i+10))
	}
	return paths
}

type zipEntry struct {
	name string
	data []byte
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("Failed to add %s: %v", e.name, err)
		}
		if _, err := w.Write(e.data); err != nil {
			t.Fatalf("Failed to write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Failed to close archive: %v", err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read %s: %v", path, err)
	}
	return data
}

// writePDF creates a PDF with one page per image
func writePDF(t *testing.T, path string, images []string) {
	t.Helper()
	if err := api.ImportImagesFile(images, path, nil, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("Failed to create PDF: %v", err)
	}
}

// writeBlankPDF writes a valid one page PDF whose page has no /Resources
func writeBlankPDF(t *testing.T, path string) {
	t.Helper()
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 200 300] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
}

// fakePacker writes a shell script standing in for the rar executable. It
// logs its arguments, one invocation per line, and concatenates the inputs
// into the output so there is something on disk afterwards. Call it with
// RarArgs "a".
func fakePacker(t *testing.T) (packer, log string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Shell script packer not supported on Windows")
	}

	dir := t.TempDir()
	packer = filepath.Join(dir, "fakerar")
	log = filepath.Join(dir, "calls.log")

	script := "#!/bin/sh\n" +
		"echo \"$@\" >> '" + log + "'\n" +
		"shift\n" +
		"out=\"$1\"\n" +
		"shift\n" +
		"cat \"$@\" > \"$out\"\n"

	if err := os.WriteFile(packer, []byte(script), 0o755); err != nil {
		t.Fatalf("Failed to create fake packer: %v", err)
	}
	return packer, log
}

// failingPacker is a packer that always exits non-zero with a message
func failingPacker(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("Shell script packer not supported on Windows")
	}

	packer := filepath.Join(t.TempDir(), "brokenrar")
	script := "#!/bin/sh\necho 'disk full' >&2\nexit 3\n"
	if err := os.WriteFile(packer, []byte(script), 0o755); err != nil {
		t.Fatalf("Failed to create fake packer: %v", err)
	}
	return packer
}
