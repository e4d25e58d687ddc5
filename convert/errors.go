package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks a batch that was refused before anything touched the filesystem
	ErrValidation = errors.New("validation failed")
	// ErrExtraction marks a unit whose source could not be read
	ErrExtraction = errors.New("extraction failed")
	// ErrPackaging marks a unit whose output could not be written
	ErrPackaging = errors.New("packaging failed")
	// ErrBusy is returned when a batch is started outside the Ready state
	ErrBusy = errors.New("converter is busy or has no selection")
)

// Phase names the pipeline step a unit failed in
type Phase string

const (
	PhaseStage   Phase = "stage"
	PhaseExtract Phase = "extract"
	PhaseBuild   Phase = "build"
)

// UnitError wraps a failure of a single unit
type UnitError struct {
	Unit  string
	Phase Phase
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Unit, e.Phase, e.Err)
}

func (e *UnitError) Unwrap() error { return e.Err }

// Is lets errors.Is classify a UnitError by phase even when the underlying
// error is a plain filesystem error
func (e *UnitError) Is(target error) bool {
	switch target {
	case ErrExtraction:
		return e.Phase == PhaseExtract || e.Phase == PhaseStage
	case ErrPackaging:
		return e.Phase == PhaseBuild
	}
	return false
}
