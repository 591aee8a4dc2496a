package adk

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/user/remedgen/pkg/engine"
)

// Message represents a chat message
type Message struct {
	Role    string // "system" or "user"
	Content string
}

// LLMProvider defines the interface for different AI models
type LLMProvider interface {
	Name() string
	Generate(ctx context.Context, messages []Message) (string, error)
	ListModels(ctx context.Context) ([]string, error)
}

// Remediator asks a provider for one remediation script per finding under a
// fixed safety policy.
type Remediator struct {
	llm     LLMProvider
	system  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewRemediator binds a provider to the rendered policy text. A zero timeout
// leaves request deadlines to the caller.
func NewRemediator(llm LLMProvider, system string, timeout time.Duration, logger *zap.Logger) *Remediator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Remediator{
		llm:     llm,
		system:  system,
		timeout: timeout,
		logger:  logger,
	}
}

// Remediate sends the policy and descriptor and returns the raw response text.
// Failures are reported as generation-stage errors; nothing is retried.
func (r *Remediator) Remediate(ctx context.Context, d engine.Descriptor) (string, error) {
	user, err := UserPrompt(d)
	if err != nil {
		return "", engine.NewStageError(engine.StageGeneration, err)
	}

	if _, ok := ctx.Deadline(); !ok && r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := r.llm.Generate(ctx, []Message{
		{Role: "system", Content: r.system},
		{Role: "user", Content: user},
	})
	if err != nil {
		r.logger.Debug("generation failed",
			zap.String("provider", r.llm.Name()),
			zap.String("finding", d.Name),
			zap.Error(err))
		return "", engine.NewStageError(engine.StageGeneration, err)
	}

	r.logger.Debug("generation completed",
		zap.String("provider", r.llm.Name()),
		zap.String("finding", d.Name),
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_len", len(resp)))
	return resp, nil
}
