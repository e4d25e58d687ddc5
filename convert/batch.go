package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/lepinkainen/pageconv/utils"
	"github.com/sirupsen/logrus"
)

// State is the orchestrator's position in its batch lifecycle
type State int

const (
	StateIdle State = iota
	StateSelecting
	StateReady
	StateConverting
	StateDone
	StatePartiallyFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateReady:
		return "ready"
	case StateConverting:
		return "converting"
	case StateDone:
		return "done"
	case StatePartiallyFailed:
		return "partially failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures a batch
type Options struct {
	From      Format
	To        Format
	Recursive bool
	// OpenResult opens the output folders in the platform file browser afterwards
	OpenResult bool
	Build      BuildOptions
}

// Orchestrator drives extract and build over a selection, one unit at a time
type Orchestrator struct {
	opts Options
	log  logrus.FieldLogger

	// CheckPacker and OpenFolder default to the utils implementations
	CheckPacker func(packer string) error
	OpenFolder  func(dir string) error

	mu    sync.Mutex
	state State
	units []Unit
}

// NewOrchestrator returns an idle orchestrator
func NewOrchestrator(opts Options, log logrus.FieldLogger) *Orchestrator {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Orchestrator{
		opts:        opts,
		log:         log,
		CheckPacker: utils.ValidatePacker,
		OpenFolder:  utils.OpenFolder,
	}
}

// State returns the current lifecycle state
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Units returns the accepted selection
func (o *Orchestrator) Units() []Unit {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Unit(nil), o.units...)
}

// Select validates the format pair, runs the pre-flight checks and turns
// paths into units. A failed selection leaves the orchestrator Idle.
func (o *Orchestrator) Select(paths []string) ([]Unit, error) {
	o.mu.Lock()
	if o.state == StateConverting {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.state = StateSelecting
	o.units = nil
	o.mu.Unlock()

	units, err := o.preflight(paths)

	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.state = StateIdle
		return nil, err
	}
	o.units = units
	o.state = StateReady
	return units, nil
}

func (o *Orchestrator) preflight(paths []string) ([]Unit, error) {
	if err := ValidatePair(o.opts.From, o.opts.To); err != nil {
		return nil, err
	}
	if _, err := extractorFor(o.opts.From); err != nil {
		return nil, err
	}
	if o.opts.To != FormatImages {
		if _, err := builderFor(o.opts.To, o.opts.Build); err != nil {
			return nil, err
		}
	}
	if o.opts.To == FormatCBR && o.CheckPacker != nil {
		if err := o.CheckPacker(o.opts.Build.RarPath); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}
	return Discover(paths, o.opts.From, o.opts.Recursive)
}

// Start hands the accepted selection to a background worker and returns the
// channel it reports on. The channel is closed after the BatchDoneEvent.
// Only a Ready orchestrator accepts a batch.
//
// The caller must drain the channel until it is closed. The worker blocks on
// a full channel, and the orchestrator stays in StateConverting until every
// event has been received.
func (o *Orchestrator) Start(ctx context.Context) (<-chan Event, error) {
	o.mu.Lock()
	if o.state != StateReady {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.state = StateConverting
	units := o.units
	o.mu.Unlock()

	events := make(chan Event, 16)
	go func() {
		defer close(events)
		o.Run(ctx, units, func(e Event) { events <- e })
	}()
	return events, nil
}

// Run converts units sequentially and always processes every one of them.
// emit receives progress events; the last one is a BatchDoneEvent.
func (o *Orchestrator) Run(ctx context.Context, units []Unit, emit func(Event)) Summary {
	if emit == nil {
		emit = func(Event) {}
	}
	// a running batch is not cancellable
	ctx = context.WithoutCancel(ctx)

	log := o.log.WithFields(logrus.Fields{
		"batch": uuid.NewString(),
		"from":  o.opts.From,
		"to":    o.opts.To,
	})
	log.WithField("units", len(units)).Info("Batch started")

	state := BatchState{Total: len(units)}
	summary := Summary{Output: o.opts.To, Total: len(units)}
	folders := make(map[string]bool)

	for _, unit := range units {
		name := unit.Name()
		ulog := log.WithField("unit", name)

		state.UnitPercent = 0
		state.Status = "Working on " + unit.Source
		emit(UnitStartedEvent{Unit: name, State: state})
		ulog.Info("Converting")

		report := func(done, total int) {
			if total > 0 {
				state.UnitPercent = percent(done, total)
			}
			emit(UnitProgressEvent{Unit: name, Done: done, Total: total, State: state})
		}

		output, err := o.convertUnit(ctx, unit, report, ulog)

		state.Processed++
		if err != nil {
			state.Failed++
			ulog.WithError(err).Error("Unit failed")
		} else {
			state.Succeeded++
			state.UnitPercent = 100
			ulog.WithField("output", output).Info("Unit done")

			folder := filepath.Dir(output)
			if o.opts.To == FormatImages {
				folder = output
			}
			if !folders[folder] {
				folders[folder] = true
				summary.Folders = append(summary.Folders, folder)
			}
		}
		state.BatchPercent = percent(state.Processed, state.Total)

		summary.Results = append(summary.Results, UnitResult{Unit: unit, Output: output, Err: err})
		emit(UnitFinishedEvent{Unit: name, Output: output, Err: err, State: state})
	}

	summary.Succeeded = state.Succeeded
	summary.Failed = state.Failed

	if o.opts.OpenResult && o.OpenFolder != nil {
		for _, folder := range summary.Folders {
			if err := o.OpenFolder(folder); err != nil {
				log.WithError(err).Warn("Could not open result folder")
			}
		}
	}

	final := StateDone
	if summary.Failed > 0 {
		final = StatePartiallyFailed
	}
	o.mu.Lock()
	if o.state == StateConverting {
		o.state = final
		o.units = nil
	}
	o.mu.Unlock()

	state.Status = summary.Message()
	state.BatchPercent = 100
	log.WithFields(logrus.Fields{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
	}).Info("Batch finished")
	emit(BatchDoneEvent{Summary: summary, State: state})

	return summary
}

// convertUnit runs extract and build for one unit. The staging area never
// outlives the call unless it is the deliverable itself.
func (o *Orchestrator) convertUnit(ctx context.Context, unit Unit, report ProgressFunc, log logrus.FieldLogger) (string, error) {
	extractor, err := extractorFor(unit.Format)
	if err != nil {
		return "", &UnitError{Unit: unit.Name(), Phase: PhaseExtract, Err: err}
	}

	var stage *StagingArea
	if needsStaging(unit.Format) {
		stage, err = NewStagingArea(unit.StagingDir(), o.opts.To == FormatImages)
		if err != nil {
			return "", &UnitError{Unit: unit.Name(), Phase: PhaseStage, Err: err}
		}
		defer func() {
			if err := stage.Cleanup(); err != nil {
				log.WithError(err).Warn("Failed to remove staging directory")
			}
		}()
	}

	pages, err := extractor.Extract(ctx, unit, stage, report)
	if err != nil {
		return "", &UnitError{Unit: unit.Name(), Phase: PhaseExtract, Err: err}
	}
	// an image-less source still yields an empty archive or folder; pdf needs a
	// first page to size the document and the packer needs at least one input
	if len(pages) == 0 && (o.opts.To == FormatPDF || o.opts.To == FormatCBR) {
		return "", &UnitError{Unit: unit.Name(), Phase: PhaseExtract, Err: errors.New("no page images found")}
	}
	log.WithField("pages", len(pages)).Debug("Extracted")

	if o.opts.To == FormatImages {
		if stage == nil {
			return "", &UnitError{Unit: unit.Name(), Phase: PhaseBuild, Err: errors.New("image output needs a staged source")}
		}
		stage.Keep()
		return stage.Dir, nil
	}

	builder, err := builderFor(o.opts.To, o.opts.Build)
	if err != nil {
		return "", &UnitError{Unit: unit.Name(), Phase: PhaseBuild, Err: err}
	}

	output := unit.OutputPath(o.opts.To)
	if err := builder.Build(ctx, pagePaths(pages), output); err != nil {
		// do not leave a half written artifact behind
		_ = os.Remove(output)
		return "", &UnitError{Unit: unit.Name(), Phase: PhaseBuild, Err: err}
	}
	return output, nil
}

func percent(done, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(done) / float64(total) * 100
	if p > 100 {
		return 100
	}
	return p
}
