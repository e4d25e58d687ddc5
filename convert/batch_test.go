package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBatch selects paths and drains the event channel of a started batch
func runBatch(t *testing.T, o *Orchestrator, paths ...string) (Summary, []Event) {
	t.Helper()

	_, err := o.Select(paths)
	require.NoError(t, err)
	require.Equal(t, StateReady, o.State())

	events, err := o.Start(context.Background())
	require.NoError(t, err)

	var all []Event
	for e := range events {
		all = append(all, e)
	}
	require.NotEmpty(t, all)

	done, ok := all[len(all)-1].(BatchDoneEvent)
	require.True(t, ok, "last event should be BatchDoneEvent, got %T", all[len(all)-1])
	return done.Summary, all
}

func newTestOrchestrator(opts Options) *Orchestrator {
	o := NewOrchestrator(opts, nil)
	o.OpenFolder = func(string) error { return errors.New("no file browser in tests") }
	return o
}

func TestOrchestrator_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	images := writeJPEGs(t, filepath.Join(dir, "src"), 2)

	good1 := filepath.Join(dir, "a.pdf")
	bad := filepath.Join(dir, "b.pdf")
	good2 := filepath.Join(dir, "c.pdf")
	writePDF(t, good1, images)
	require.NoError(t, os.WriteFile(bad, []byte("%PDF-1.4\ngarbage"), 0o644))
	writePDF(t, good2, images[:1])

	o := newTestOrchestrator(Options{From: FormatPDF, To: FormatCBZ})
	summary, events := runBatch(t, o, good1, bad, good2)

	assert.Equal(t, "2 file(s) successfully converted, 1 file(s) failed", summary.Message())
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, StatePartiallyFailed, o.State())

	require.Len(t, summary.Results, 3)
	assert.NoError(t, summary.Results[0].Err)
	assert.ErrorIs(t, summary.Results[1].Err, ErrExtraction)
	assert.NoError(t, summary.Results[2].Err)

	assert.FileExists(t, filepath.Join(dir, "a.cbz"))
	assert.NoFileExists(t, filepath.Join(dir, "b.cbz"))
	assert.FileExists(t, filepath.Join(dir, "c.cbz"))

	for _, name := range []string{"a", "b", "c"} {
		assert.NoDirExists(t, filepath.Join(dir, name), "staging directory %s left behind", name)
	}

	// counters only ever grow and the final snapshot is complete
	var processed int
	for _, e := range events {
		s := e.Snapshot()
		assert.GreaterOrEqual(t, s.Processed, processed)
		assert.Equal(t, s.Processed, s.Succeeded+s.Failed)
		assert.LessOrEqual(t, s.UnitPercent, 100.0)
		assert.LessOrEqual(t, s.BatchPercent, 100.0)
		processed = s.Processed
	}
	last := events[len(events)-1].Snapshot()
	assert.Equal(t, 3, last.Processed)
	assert.Equal(t, 100.0, last.BatchPercent)
	assert.Equal(t, summary.Message(), last.Status)
}

func TestOrchestrator_ZipToRar(t *testing.T) {
	packer, log := fakePacker(t)
	dir := t.TempDir()
	images := writeJPEGs(t, filepath.Join(dir, "src"), 5)

	var entries []zipEntry
	for _, img := range images {
		entries = append(entries, zipEntry{name: filepath.Base(img), data: readFile(t, img)})
	}
	archive := filepath.Join(dir, "book.cbz")
	writeZip(t, archive, entries)

	o := newTestOrchestrator(Options{
		From:  FormatCBZ,
		To:    FormatCBR,
		Build: BuildOptions{RarPath: packer, RarArgs: "a"},
	})
	summary, _ := runBatch(t, o, archive)

	assert.Equal(t, "1 file(s) successfully converted", summary.Message())
	assert.Equal(t, StateDone, o.State())

	output := filepath.Join(dir, "book.cbr")
	assert.FileExists(t, output)
	assert.NoDirExists(t, filepath.Join(dir, "book"))

	calls := strings.Split(strings.TrimSpace(string(readFile(t, log))), "\n")
	require.Len(t, calls, 1, "packer should run exactly once")

	args := strings.Fields(calls[0])
	require.Len(t, args, 2+5)
	assert.Equal(t, output, args[1])
	for i, page := range args[2:] {
		assert.Equal(t, pageName(i+1, ".jpg"), filepath.Base(page))
	}
}

func TestOrchestrator_PackerFailureLeavesNoOutput(t *testing.T) {
	packer := failingPacker(t)
	dir := t.TempDir()
	imgDir := filepath.Join(dir, "chapter")
	writeJPEGs(t, imgDir, 2)

	o := newTestOrchestrator(Options{
		From:  FormatImages,
		To:    FormatCBR,
		Build: BuildOptions{RarPath: packer, RarArgs: "a"},
	})
	summary, _ := runBatch(t, o, imgDir)

	assert.Equal(t, "0 file(s) successfully converted, 1 file(s) failed", summary.Message())
	assert.ErrorIs(t, summary.Results[0].Err, ErrPackaging)
	assert.NoFileExists(t, filepath.Join(dir, "chapter.cbr"))
	// the source folder is never touched
	assert.DirExists(t, imgDir)
}

func TestOrchestrator_ArchiveToImages(t *testing.T) {
	dir := t.TempDir()
	images := writeJPEGs(t, filepath.Join(dir, "src"), 3)

	var entries []zipEntry
	for _, img := range images {
		entries = append(entries, zipEntry{name: filepath.Base(img), data: readFile(t, img)})
	}
	archive := filepath.Join(dir, "vol1.cbz")
	writeZip(t, archive, entries)

	var opened []string
	o := NewOrchestrator(Options{From: FormatCBZ, To: FormatImages, OpenResult: true}, nil)
	o.OpenFolder = func(folder string) error {
		opened = append(opened, folder)
		return nil
	}
	summary, _ := runBatch(t, o, archive)

	out := filepath.Join(dir, "vol1")
	assert.Equal(t, "1 file(s) successfully extracted", summary.Message())
	assert.Equal(t, []string{out}, summary.Folders)
	assert.Equal(t, []string{out}, opened)

	staged, err := os.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, staged, 3)
	for i, e := range staged {
		assert.Equal(t, pageName(i+1, ".jpg"), e.Name())
	}
}

func TestOrchestrator_ImagesToZip(t *testing.T) {
	dir := t.TempDir()
	chap := filepath.Join(dir, "chapter 1")
	writeJPEGs(t, chap, 3)
	writePNG(t, filepath.Join(chap, "004.png"), 16, 16, 3)

	o := newTestOrchestrator(Options{From: FormatImages, To: FormatCBZ})
	summary, _ := runBatch(t, o, chap)

	assert.Equal(t, "1 file(s) successfully converted", summary.Message())
	assert.Equal(t, filepath.Join(dir, "chapter 1.cbz"), summary.Results[0].Output)
	assert.Equal(t, []string{dir}, summary.Folders)

	// source images stay where they were
	files, err := os.ReadDir(chap)
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestOrchestrator_OccupiedStagingDir(t *testing.T) {
	dir := t.TempDir()
	images := writeJPEGs(t, filepath.Join(dir, "src"), 1)
	archive := filepath.Join(dir, "book.cbz")
	writeZip(t, archive, []zipEntry{{name: "001.jpg", data: readFile(t, images[0])}})

	// a folder of the user's that happens to carry the book's name
	occupied := filepath.Join(dir, "book")
	touch(t, filepath.Join(occupied, "mine.txt"))

	o := newTestOrchestrator(Options{From: FormatCBZ, To: FormatPDF})
	summary, _ := runBatch(t, o, archive)

	assert.Equal(t, 1, summary.Failed)
	assert.ErrorIs(t, summary.Results[0].Err, ErrExtraction)
	assert.FileExists(t, filepath.Join(occupied, "mine.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "book.pdf"))
}

func TestOrchestrator_EmptyArchiveFails(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "empty.cbz")
	writeZip(t, archive, []zipEntry{{name: "ComicInfo.xml", data: []byte("<ComicInfo/>")}})

	o := newTestOrchestrator(Options{From: FormatCBZ, To: FormatPDF})
	summary, _ := runBatch(t, o, archive)

	assert.Equal(t, 1, summary.Failed)
	assert.NoDirExists(t, filepath.Join(dir, "empty"))
	assert.NoFileExists(t, filepath.Join(dir, "empty.pdf"))
}

func TestOrchestrator_ImagelessPDF(t *testing.T) {
	t.Run("Empty archive for cbz", func(t *testing.T) {
		dir := t.TempDir()
		pdf := filepath.Join(dir, "text.pdf")
		writeBlankPDF(t, pdf)

		o := newTestOrchestrator(Options{From: FormatPDF, To: FormatCBZ})
		summary, _ := runBatch(t, o, pdf)

		assert.Equal(t, "1 file(s) successfully converted", summary.Message())
		output := filepath.Join(dir, "text.cbz")
		require.FileExists(t, output)
		zr, err := zip.OpenReader(output)
		require.NoError(t, err)
		defer zr.Close()
		assert.Empty(t, zr.File)
		assert.NoDirExists(t, filepath.Join(dir, "text"))
	})

	t.Run("Empty folder for images", func(t *testing.T) {
		dir := t.TempDir()
		pdf := filepath.Join(dir, "text.pdf")
		writeBlankPDF(t, pdf)

		o := newTestOrchestrator(Options{From: FormatPDF, To: FormatImages})
		summary, _ := runBatch(t, o, pdf)

		assert.Equal(t, "1 file(s) successfully extracted", summary.Message())
		entries, err := os.ReadDir(filepath.Join(dir, "text"))
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("Fails for cbr", func(t *testing.T) {
		packer, log := fakePacker(t)
		dir := t.TempDir()
		pdf := filepath.Join(dir, "text.pdf")
		writeBlankPDF(t, pdf)

		o := newTestOrchestrator(Options{
			From:  FormatPDF,
			To:    FormatCBR,
			Build: BuildOptions{RarPath: packer, RarArgs: "a"},
		})
		summary, _ := runBatch(t, o, pdf)

		assert.Equal(t, 1, summary.Failed)
		assert.ErrorIs(t, summary.Results[0].Err, ErrExtraction)
		assert.NoFileExists(t, filepath.Join(dir, "text.cbr"))
		assert.NoFileExists(t, log, "packer must not run without pages")
		assert.NoDirExists(t, filepath.Join(dir, "text"))
	})
}

func TestOrchestrator_RarToZip(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "book.cbr")
	require.NoError(t, os.WriteFile(archive, readFile(t, filepath.Join("testdata", "book.cbr")), 0o644))

	o := newTestOrchestrator(Options{From: FormatCBR, To: FormatCBZ})
	summary, _ := runBatch(t, o, archive)

	assert.Equal(t, "1 file(s) successfully converted", summary.Message())
	assert.NoDirExists(t, filepath.Join(dir, "book"))

	zr, err := zip.OpenReader(filepath.Join(dir, "book.cbz"))
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 3)
	for i, f := range zr.File {
		assert.Equal(t, pageName(i+1, ".png"), f.Name)

		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, rc.Close())
		require.NoError(t, err)
		assert.Equal(t, readFile(t, filepath.Join("testdata", fmt.Sprintf("rar_page%d.png", i+1))), data)
	}
}

func TestOrchestrator_StateMachine(t *testing.T) {
	dir := t.TempDir()
	images := writeJPEGs(t, filepath.Join(dir, "chapter"), 1)

	t.Run("Start without selection", func(t *testing.T) {
		o := newTestOrchestrator(Options{From: FormatImages, To: FormatCBZ})
		_, err := o.Start(context.Background())
		assert.ErrorIs(t, err, ErrBusy)
		assert.Equal(t, StateIdle, o.State())
	})

	t.Run("Equal formats rejected", func(t *testing.T) {
		o := newTestOrchestrator(Options{From: FormatCBZ, To: FormatCBZ})
		_, err := o.Select([]string{dir})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, StateIdle, o.State())
		assert.Empty(t, o.Units())
	})

	t.Run("Missing packer rejected before anything runs", func(t *testing.T) {
		o := newTestOrchestrator(Options{From: FormatImages, To: FormatCBR})
		o.CheckPacker = func(string) error { return errors.New("rar not found") }
		_, err := o.Select([]string{filepath.Dir(images[0])})
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, StateIdle, o.State())
		assert.NoFileExists(t, filepath.Join(dir, "chapter.cbr"))
	})

	t.Run("Select while converting", func(t *testing.T) {
		o := newTestOrchestrator(Options{From: FormatImages, To: FormatCBZ})
		o.state = StateConverting
		_, err := o.Select([]string{filepath.Dir(images[0])})
		assert.ErrorIs(t, err, ErrBusy)
		assert.Equal(t, StateConverting, o.State())
	})

	t.Run("Done resets on next selection", func(t *testing.T) {
		o := newTestOrchestrator(Options{From: FormatImages, To: FormatCBZ})
		runBatch(t, o, filepath.Dir(images[0]))
		assert.Equal(t, StateDone, o.State())

		_, err := o.Start(context.Background())
		assert.ErrorIs(t, err, ErrBusy, "a finished batch cannot be started again")

		_, err = o.Select([]string{filepath.Dir(images[0])})
		require.NoError(t, err)
		assert.Equal(t, StateReady, o.State())
	})
}

func TestOrchestrator_RunIgnoresCancellation(t *testing.T) {
	dir := t.TempDir()
	chap := filepath.Join(dir, "chapter")
	writeJPEGs(t, chap, 2)

	o := newTestOrchestrator(Options{From: FormatImages, To: FormatCBZ})
	units, err := o.Select([]string{chap})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := o.Run(ctx, units, nil)
	assert.Equal(t, 1, summary.Succeeded)
	assert.FileExists(t, filepath.Join(dir, "chapter.cbz"))
}

func TestSummaryMessage(t *testing.T) {
	tests := []struct {
		summary  Summary
		expected string
	}{
		{Summary{Output: FormatPDF, Succeeded: 3}, "3 file(s) successfully converted"},
		{Summary{Output: FormatCBZ, Succeeded: 1, Failed: 2}, "1 file(s) successfully converted, 2 file(s) failed"},
		{Summary{Output: FormatImages, Succeeded: 2}, "2 file(s) successfully extracted"},
		{Summary{Output: FormatImages, Failed: 1}, "0 file(s) successfully extracted, 1 file(s) failed"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.summary.Message())
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, percent(0, 0))
	assert.Equal(t, 50.0, percent(1, 2))
	assert.Equal(t, 100.0, percent(5, 4))
}
