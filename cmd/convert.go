package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lepinkainen/pageconv/convert"
	"github.com/lepinkainen/pageconv/types"
	"github.com/lepinkainen/pageconv/ui"
	"github.com/lepinkainen/pageconv/utils"
	"github.com/mattn/go-isatty"
)

// ConvertCmd converts a selection of files or folders from one page container
// format to another, one unit at a time
type ConvertCmd struct {
	Paths     []string `arg:"" name:"paths" help:"Files or folders to convert" type:"path"`
	From      string   `short:"f" help:"Input format" default:"${config_from}" enum:"pdf,cbz,cbr,images"`
	To        string   `short:"t" help:"Output format" default:"${config_to}" enum:"pdf,cbz,cbr,images"`
	Recursive bool     `short:"r" help:"Descend into subfolders" default:"${config_recursive}"`
	Open      bool     `help:"Open the output folders when the batch is done" default:"${config_open}"`
	NoTUI     bool     `name:"no-tui" help:"Print plain progress instead of the interactive view" default:"${config_no_tui}"`
	RarPath   string   `name:"rar-path" help:"RAR packer executable used for cbr output" default:"${config_rar_path}"`
	RarArgs   string   `name:"rar-args" help:"Arguments passed to the RAR packer before the output path" default:"${config_rar_args}"`
	LockFile  string   `name:"lock-file" help:"Lock file guarding against concurrent batches" default:"${lock_path}" hidden:""`
}

// Options turns the flags into orchestrator options
func (cmd *ConvertCmd) Options() (convert.Options, error) {
	from, err := convert.ParseFormat(cmd.From)
	if err != nil {
		return convert.Options{}, err
	}
	to, err := convert.ParseFormat(cmd.To)
	if err != nil {
		return convert.Options{}, err
	}
	if err := convert.ValidatePair(from, to); err != nil {
		return convert.Options{}, err
	}

	return convert.Options{
		From:       from,
		To:         to,
		Recursive:  cmd.Recursive,
		OpenResult: cmd.Open,
		Build: convert.BuildOptions{
			RarPath: cmd.RarPath,
			RarArgs: cmd.RarArgs,
		},
	}, nil
}

func (cmd *ConvertCmd) Run(appCtx *types.AppContext) error {
	log := appCtx.Log()

	opts, err := cmd.Options()
	if err != nil {
		return err
	}

	lockPath := cmd.LockFile
	if lockPath == "" {
		lockPath = utils.DefaultLockPath()
	}
	lock, err := utils.AcquireBatchLock(lockPath)
	if err != nil {
		if errors.Is(err, utils.ErrLocked) {
			return fmt.Errorf("%w (lock file %s)", err, lockPath)
		}
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			log.WithError(err).Warn("Failed to release batch lock")
		}
	}()

	orch := convert.NewOrchestrator(opts, log)
	units, err := orch.Select(cmd.Paths)
	if err != nil {
		return err
	}

	fmt.Println(ui.HeaderStyle.Render(fmt.Sprintf("pageconv %s", appCtx.GetVersion())))
	fmt.Println(ui.ProcessingStyle.Render(fmt.Sprintf("📚 Converting %d item(s) from %s to %s",
		len(units), ui.FormatLabel(opts.From), ui.FormatLabel(opts.To))))

	events, err := orch.Start(context.Background())
	if err != nil {
		return err
	}

	var summary convert.Summary
	if cmd.NoTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
		summary = ui.RunPlain(events, len(units), os.Stdout)
	} else {
		summary = runTUI(events, opts, len(units), appCtx.GetVersion())
	}

	fmt.Printf("\n%s\n", ui.SummaryLine(summary))
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.Failed, summary.Total)
	}
	return nil
}

// runTUI follows the batch in the interactive view. Should the view fail,
// whatever is left of the batch is followed in plain mode instead.
func runTUI(events <-chan convert.Event, opts convert.Options, total int, version string) convert.Summary {
	model := ui.NewBatchModel(events, opts.From, opts.To, total, version)
	final, err := tea.NewProgram(model).Run()
	if err == nil {
		if m, ok := final.(ui.BatchModel); ok {
			if summary, ok := m.Summary(); ok {
				return summary
			}
		}
	}
	return ui.RunPlain(events, total, os.Stdout)
}
