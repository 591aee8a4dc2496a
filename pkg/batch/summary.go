package batch

import (
	"errors"
	"sort"
	"time"
)

// Process exit statuses.
const (
	ExitOK            = 0
	ExitTaskFailed    = 1
	ExitUsage         = 2
	ExitInputNotFound = 3
)

// RunSummary aggregates the outcomes of one run.
// Total always equals Succeeded + Failed.
type RunSummary struct {
	RunID     string
	Total     int
	Succeeded int
	Failed    int
	Wall      time.Duration
	Outcomes  []TaskOutcome
}

// Summarize counts outcomes and orders them by source file so rendering is
// independent of completion order.
func Summarize(runID string, outcomes []TaskOutcome, wall time.Duration) RunSummary {
	sorted := make([]TaskOutcome, len(outcomes))
	copy(sorted, outcomes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SourceFile < sorted[j].SourceFile
	})

	s := RunSummary{
		RunID:    runID,
		Total:    len(sorted),
		Wall:     wall,
		Outcomes: sorted,
	}
	for _, o := range sorted {
		if o.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// ExitCode is zero only when no task failed, including the empty run.
func (s RunSummary) ExitCode() int {
	if s.Failed > 0 {
		return ExitTaskFailed
	}
	return ExitOK
}

// ExitCodeForError maps errors raised before dispatch to exit statuses.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitOK
	}
	if errors.Is(err, ErrNotFound) {
		return ExitInputNotFound
	}
	return ExitUsage
}
