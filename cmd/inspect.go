package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lepinkainen/pageconv/convert"
	"github.com/lepinkainen/pageconv/types"
	"github.com/lepinkainen/pageconv/ui"
)

// InspectCmd lists the pages a source would contribute to a conversion
type InspectCmd struct {
	Paths []string `arg:"" name:"paths" help:"Files or folders to inspect" type:"path"`
	From  string   `short:"f" help:"Input format; detected from the path when empty"`
}

func (cmd *InspectCmd) Run(appCtx *types.AppContext) error {
	log := appCtx.Log()

	for _, path := range cmd.Paths {
		format, err := cmd.format(path)
		if err != nil {
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
			continue
		}

		fmt.Printf("\n%s\n", ui.InfoStyle.Render(fmt.Sprintf("%s (%s)", path, ui.FormatLabel(format))))

		if format == convert.FormatPDF {
			if err := inspectPDF(path); err != nil {
				fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
			}
			continue
		}

		units, err := convert.Discover([]string{path}, format, false)
		if err != nil {
			fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
			continue
		}
		for _, unit := range units {
			if err := inspectUnit(unit); err != nil {
				log.WithError(err).WithField("unit", unit.Name()).Debug("Inspect failed")
				fmt.Printf("%s\n", ui.ErrorStyle.Render(fmt.Sprintf("❌ %v", err)))
			}
		}
	}
	return nil
}

func (cmd *InspectCmd) format(path string) (convert.Format, error) {
	if cmd.From != "" {
		return convert.ParseFormat(cmd.From)
	}
	return convert.DetectFormat(path)
}

// inspectPDF prints the image streams of each page straight from the object graph
func inspectPDF(path string) error {
	pages, err := convert.InspectPDF(path)
	if err != nil {
		return err
	}

	total := 0
	for _, p := range pages {
		if len(p.Images) == 0 {
			fmt.Printf("   Page %d: %s\n", p.Page, ui.DimStyle.Render("no images"))
			continue
		}
		for _, img := range p.Images {
			total++
			fmt.Printf("   Page %d: %-8s obj %-5d %-14s %8d bytes\n", p.Page, img.Name, img.ObjNr, img.Filter, len(img.Raw))
		}
	}
	fmt.Printf("   %d page(s), %d image(s)\n", len(pages), total)
	return nil
}

// inspectUnit extracts a unit to a scratch directory and reports each page's size
func inspectUnit(unit convert.Unit) error {
	pages, dir, err := convert.ExtractToTemp(context.Background(), unit)
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	for _, p := range pages {
		w, h, err := convert.ImageSize(p.Path)
		if err != nil {
			fmt.Printf("   %3d  %-20s %s\n", p.Index, filepath.Base(p.Path), ui.WarningStyle.Render("unreadable"))
			continue
		}
		fmt.Printf("   %3d  %-20s %5dx%d\n", p.Index, filepath.Base(p.Path), w, h)
	}
	fmt.Printf("   %d page(s)\n", len(pages))
	return nil
}
