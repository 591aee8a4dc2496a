package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/user/remedgen/pkg/engine"
)

// DefaultWorkers keeps concurrent generation calls within typical provider
// rate limits.
const DefaultWorkers = 5

// TaskOutcome is the result of processing one descriptor file.
type TaskOutcome struct {
	SourceFile     string
	OutputPath     string
	Err            error
	Duration       time.Duration
	GenerationTime time.Duration
}

// OK reports whether the task produced an artifact without error.
func (o TaskOutcome) OK() bool {
	return o.Err == nil && o.OutputPath != ""
}

// Scheduler runs the pipeline for every file with at most Workers tasks in
// flight. A failing task never affects its siblings.
type Scheduler struct {
	Workers  int
	Pipeline *Pipeline
	Observer Observer
	Logger   *zap.Logger
}

// Run processes files and blocks until every task has finished. It returns
// exactly one outcome per file, in completion order.
func (s *Scheduler) Run(ctx context.Context, files []string) []TaskOutcome {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	events := make(chan Event, workers*4)
	done := make(chan []TaskOutcome)

	// The consumer owns the outcome slice and all observer state.
	go func() {
		outcomes := make([]TaskOutcome, 0, len(files))
		for ev := range events {
			if ev.Kind == TaskFinished && ev.Outcome != nil {
				outcomes = append(outcomes, *ev.Outcome)
			}
			if s.Observer != nil {
				s.Observer(ev)
			}
		}
		done <- outcomes
	}()

	total := len(files)
	for i, f := range files {
		events <- Event{Kind: TaskQueued, Index: i, Total: total, File: f, At: time.Now()}
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			outcome := s.runTask(ctx, logger, i, total, f, events)
			events <- Event{Kind: TaskFinished, Index: i, Total: total, File: f, Outcome: &outcome, At: time.Now()}
			// failures live in the outcome
			return nil
		})
	}
	_ = g.Wait()
	close(events)

	return <-done
}

func (s *Scheduler) runTask(ctx context.Context, logger *zap.Logger, index, total int, file string, events chan<- Event) (outcome TaskOutcome) {
	start := time.Now()
	outcome.SourceFile = file

	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked",
				zap.String("file", file),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
			outcome.OutputPath = ""
			outcome.Err = fmt.Errorf("internal error: %v", r)
		}
		outcome.Duration = time.Since(start)
	}()

	events <- Event{Kind: TaskStarted, Index: index, Total: total, File: file, At: start}

	path, genTime, err := s.Pipeline.Process(ctx, file, func(stage engine.Stage) {
		events <- Event{Kind: StageChanged, Index: index, Total: total, File: file, Stage: stage, At: time.Now()}
	})
	outcome.GenerationTime = genTime

	if err != nil {
		outcome.Err = err
		logger.Info("task failed",
			zap.String("file", file),
			zap.String("stage", string(engine.StageOf(err))),
			zap.Error(err))
		return outcome
	}

	outcome.OutputPath = path
	logger.Debug("task succeeded",
		zap.String("file", file),
		zap.String("path", path),
		zap.Duration("generation", genTime))
	return outcome
}
