package cmd

import (
	"fmt"
	"strings"

	"github.com/lepinkainen/pageconv/convert"
	"github.com/lepinkainen/pageconv/types"
	"github.com/lepinkainen/pageconv/ui"
	"github.com/lepinkainen/pageconv/utils"
)

// FormatsCmd lists the supported formats and checks for the RAR packer
type FormatsCmd struct{}

func (cmd *FormatsCmd) Run(appCtx *types.AppContext) error {
	fmt.Println(ui.HeaderStyle.Render("Supported formats"))

	for _, f := range convert.Formats {
		out := f.OutputExtension()
		if out == "" {
			out = "folder"
		}
		fmt.Printf("  %-8s in: %-26s out: %s\n", ui.FormatLabel(f), strings.Join(f.InputExtensions(), " "), out)
	}

	packer := "rar"
	if appCtx != nil && appCtx.Config != nil {
		packer = appCtx.Config.Rar.Path
	}

	fmt.Println()
	if err := utils.ValidatePacker(packer); err != nil {
		fmt.Println(ui.WarningStyle.Render(fmt.Sprintf("⚠️  CBR output unavailable: %v", err)))
		return nil
	}
	fmt.Println(ui.SuccessStyle.Render(fmt.Sprintf("✅ CBR output available (%s)", packer)))
	return nil
}
