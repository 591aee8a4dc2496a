package batch

import (
	"time"

	"github.com/user/remedgen/pkg/engine"
)

// EventKind identifies what happened to a task.
type EventKind int

const (
	TaskQueued EventKind = iota
	TaskStarted
	StageChanged
	TaskFinished
)

func (k EventKind) String() string {
	switch k {
	case TaskQueued:
		return "queued"
	case TaskStarted:
		return "started"
	case StageChanged:
		return "stage"
	case TaskFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Event is a progress message sent from a worker to the run's single
// consumer. Outcome is set only on TaskFinished.
type Event struct {
	Kind    EventKind
	Index   int
	Total   int
	File    string
	Stage   engine.Stage
	Outcome *TaskOutcome
	At      time.Time
}

// Observer receives events. It is only ever called from one goroutine.
type Observer func(Event)
