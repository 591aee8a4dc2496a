package batch

import (
	"context"
	"time"

	"github.com/user/remedgen/pkg/engine"
)

// Generator produces raw response text for a descriptor.
type Generator interface {
	Remediate(ctx context.Context, d engine.Descriptor) (string, error)
}

// Writer persists an extracted script.
type Writer interface {
	Write(content, label string) (*engine.ScriptArtifact, error)
}

// Pipeline runs the four per-finding stages in order.
type Pipeline struct {
	Generator Generator
	Writer    Writer
}

// Process reads, generates, extracts and writes one descriptor file. It
// returns the artifact path and the duration of the generation call.
func (p *Pipeline) Process(ctx context.Context, file string, onStage func(engine.Stage)) (string, time.Duration, error) {
	if onStage == nil {
		onStage = func(engine.Stage) {}
	}

	onStage(engine.StageInput)
	d, err := engine.ReadDescriptor(file)
	if err != nil {
		return "", 0, err
	}

	onStage(engine.StageGeneration)
	start := time.Now()
	resp, err := p.Generator.Remediate(ctx, d)
	genDuration := time.Since(start)
	if err != nil {
		return "", genDuration, engine.NewStageError(engine.StageGeneration, err)
	}

	onStage(engine.StageExtraction)
	script, err := engine.ExtractScript(resp)
	if err != nil {
		return "", genDuration, err
	}

	onStage(engine.StagePersistence)
	art, err := p.Writer.Write(script, d.Name)
	if err != nil {
		return "", genDuration, engine.NewStageError(engine.StagePersistence, err)
	}
	return art.Path, genDuration, nil
}
