package cmd

import (
	"context"
	"fmt"

	"github.com/lepinkainen/pageconv/convert"
	"github.com/lepinkainen/pageconv/types"
	"github.com/lepinkainen/pageconv/ui"
)

// VerifyCmd checks that a converted output carries the same pages as its
// source. Pages are compared by perceptual hash, so re-encoded images still
// match while missing, reordered or corrupted pages do not.
type VerifyCmd struct {
	Source    string `arg:"" name:"source" help:"Original file or image folder" type:"path"`
	Converted string `arg:"" name:"converted" help:"Converted file or image folder" type:"path"`
	From      string `short:"f" help:"Format of the source; detected from the path when empty"`
	Threshold int    `help:"Hamming distance threshold for similarity (0-64)" default:"${config_threshold}"`
}

func (cmd *VerifyCmd) Run(appCtx *types.AppContext) error {
	log := appCtx.Log()

	source, err := cmd.unit(cmd.Source, cmd.From)
	if err != nil {
		return err
	}
	output, err := cmd.unit(cmd.Converted, "")
	if err != nil {
		return err
	}

	fmt.Printf("%s\n", ui.InfoStyle.Render(fmt.Sprintf("Comparing %s (%s) with %s (%s), threshold %d...",
		cmd.Source, ui.FormatLabel(source.Format), cmd.Converted, ui.FormatLabel(output.Format), cmd.Threshold)))

	report, err := convert.Verify(context.Background(), source, output, cmd.Threshold)
	if err != nil {
		return err
	}
	log.WithField("diffs", len(report.Diffs)).Debug("Verify finished")

	if report.SourcePages != report.OutputPages {
		fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ Page count differs: %d in source, %d in output",
			report.SourcePages, report.OutputPages)))
	}
	for _, d := range report.Diffs {
		if d.Err != nil {
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ Page %d: %v", d.Index, d.Err)))
			continue
		}
		fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ Page %d differs (distance %d)", d.Index, d.Distance)))
	}

	if !report.OK() {
		return fmt.Errorf("%s does not match %s", cmd.Converted, cmd.Source)
	}

	fmt.Printf("%s\n", ui.SuccessStyle.Render(fmt.Sprintf("✅ All %d page(s) match", report.SourcePages)))
	return nil
}

// unit turns a single path into a conversion unit
func (cmd *VerifyCmd) unit(path, tag string) (convert.Unit, error) {
	var (
		format convert.Format
		err    error
	)
	if tag != "" {
		format, err = convert.ParseFormat(tag)
	} else {
		format, err = convert.DetectFormat(path)
	}
	if err != nil {
		return convert.Unit{}, err
	}

	units, err := convert.Discover([]string{path}, format, false)
	if err != nil {
		return convert.Unit{}, err
	}
	if len(units) != 1 {
		return convert.Unit{}, fmt.Errorf("%s holds %d items, expected exactly one", path, len(units))
	}
	return units[0], nil
}
