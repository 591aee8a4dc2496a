package engine

import (
	"errors"
	"fmt"
)

// Stage names one step of the per-finding pipeline.
type Stage string

const (
	StageInput       Stage = "input"
	StageGeneration  Stage = "generation"
	StageExtraction  Stage = "extraction"
	StagePersistence Stage = "persistence"
)

// ErrNoScript is returned when a response carries no recoverable script.
var ErrNoScript = errors.New("no recoverable script content")

// StageError ties an error to the pipeline stage that produced it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError wraps err for stage. Errors that already carry a stage are
// returned unchanged so the innermost stage wins.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// StageOf reports the stage recorded in err, or "" when there is none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
