package pipeline

import (
	"time"

	"subflow/internal/faults"
	"subflow/internal/ffprogress"
	"subflow/internal/media"
	"subflow/internal/stage"
)

// Event is one entry in the stream produced by Execute. The variant set
// is closed; Failed and Completed are terminal and always last.
type Event interface {
	isEvent()
	// Terminal reports whether no further events follow this one.
	Terminal() bool
}

// StageStarted marks entry into a stage.
type StageStarted struct {
	Stage stage.Name
}

// StageProgress reports forward motion inside a stage. Fraction is
// non-decreasing within one stage. Snapshot is populated only for the
// rendering stage.
type StageProgress struct {
	Stage    stage.Name
	Fraction float64
	Message  string
	Snapshot *ffprogress.Snapshot
}

// StageSkipped marks a stage that was deliberately not run.
type StageSkipped struct {
	Stage  stage.Name
	Reason string
}

// StageCompleted marks a stage whose external operation finished
// successfully after its terminal progress was observed.
type StageCompleted struct {
	Stage    stage.Name
	Duration time.Duration
}

// CheckpointSaved reports that durable progress was recorded.
type CheckpointSaved struct {
	JobID string
	Stage stage.Name
}

// RecoveryAttempted reports one retry or fallback try before the stage
// operation is re-invoked.
type RecoveryAttempted struct {
	Stage    stage.Name
	Attempt  int
	Delay    time.Duration
	Fallback string
	Err      *faults.Error
}

// Failed is the terminal event of an aborted pipeline.
type Failed struct {
	Err *faults.Error
}

// Completed is the terminal event of a successful pipeline.
type Completed struct {
	Result   media.RenderResult
	Duration time.Duration
}

func (StageStarted) isEvent()      {}
func (StageProgress) isEvent()     {}
func (StageSkipped) isEvent()      {}
func (StageCompleted) isEvent()    {}
func (CheckpointSaved) isEvent()   {}
func (RecoveryAttempted) isEvent() {}
func (Failed) isEvent()            {}
func (Completed) isEvent()         {}

func (StageStarted) Terminal() bool      { return false }
func (StageProgress) Terminal() bool     { return false }
func (StageSkipped) Terminal() bool      { return false }
func (StageCompleted) Terminal() bool    { return false }
func (CheckpointSaved) Terminal() bool   { return false }
func (RecoveryAttempted) Terminal() bool { return false }
func (Failed) Terminal() bool            { return true }
func (Completed) Terminal() bool         { return true }
