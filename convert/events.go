package convert

import "fmt"

// BatchState is a snapshot of the worker's counters. Only the worker writes
// the live copy; events carry copies.
type BatchState struct {
	Total     int
	Processed int
	Succeeded int
	Failed    int
	Status    string
	// UnitPercent and BatchPercent are in [0,100]
	UnitPercent  float64
	BatchPercent float64
}

// Event is anything the worker reports to the caller
type Event interface {
	Snapshot() BatchState
}

// UnitStartedEvent is sent before a unit is extracted
type UnitStartedEvent struct {
	Unit  string
	State BatchState
}

// UnitProgressEvent reports extraction progress within the current unit
type UnitProgressEvent struct {
	Unit  string
	Done  int
	Total int // 0 when unknown
	State BatchState
}

// UnitFinishedEvent is sent once a unit succeeded or failed
type UnitFinishedEvent struct {
	Unit   string
	Output string
	Err    error
	State  BatchState
}

// BatchDoneEvent is the last event of a batch
type BatchDoneEvent struct {
	Summary Summary
	State   BatchState
}

func (e UnitStartedEvent) Snapshot() BatchState  { return e.State }
func (e UnitProgressEvent) Snapshot() BatchState { return e.State }
func (e UnitFinishedEvent) Snapshot() BatchState { return e.State }
func (e BatchDoneEvent) Snapshot() BatchState    { return e.State }

// UnitResult is the outcome of one unit
type UnitResult struct {
	Unit   Unit
	Output string
	Err    error
}

// Summary describes a finished batch
type Summary struct {
	Output    Format
	Total     int
	Succeeded int
	Failed    int
	Results   []UnitResult
	// Folders are the distinct directories holding the outputs
	Folders []string
}

// Message renders the final status line
func (s Summary) Message() string {
	verb := "converted"
	if s.Output == FormatImages {
		verb = "extracted"
	}
	msg := fmt.Sprintf("%d file(s) successfully %s", s.Succeeded, verb)
	if s.Failed > 0 {
		msg += fmt.Sprintf(", %d file(s) failed", s.Failed)
	}
	return msg
}
