package ui

import (
	"fmt"
	"io"

	"github.com/lepinkainen/pageconv/convert"
	"github.com/schollz/progressbar/v3"
)

// RunPlain follows a batch without the TUI: one progress bar for the whole
// batch plus a line per finished unit. It returns the batch summary once the
// channel is closed.
func RunPlain(events <-chan convert.Event, total int, w io.Writer) convert.Summary {
	bar := progressbar.NewOptions(
		total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Converting"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)

	var summary convert.Summary
	for e := range events {
		switch e := e.(type) {
		case convert.UnitStartedEvent:
			bar.Describe(e.Unit)

		case convert.UnitFinishedEvent:
			_ = bar.Clear()
			if e.Err != nil {
				fmt.Fprintln(w, ErrorStyle.Render(fmt.Sprintf("❌ %s: %v", e.Unit, e.Err)))
			} else {
				fmt.Fprintln(w, SuccessStyle.Render(fmt.Sprintf("✅ %s → %s", e.Unit, e.Output)))
			}
			_ = bar.Set(e.State.Processed)

		case convert.BatchDoneEvent:
			_ = bar.Finish()
			summary = e.Summary
		}
	}
	return summary
}
