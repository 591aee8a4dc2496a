package adk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/remedgen/pkg/engine"
)

type fakeProvider struct {
	resp     string
	err      error
	got      []Message
	deadline bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-1"}, nil
}

func (f *fakeProvider) Generate(ctx context.Context, messages []Message) (string, error) {
	f.got = messages
	_, f.deadline = ctx.Deadline()
	return f.resp, f.err
}

func TestRemediator_Remediate(t *testing.T) {
	llm := &fakeProvider{resp: "```bash\necho ok\n```"}
	r := NewRemediator(llm, "POLICY", time.Minute, nil)

	resp, err := r.Remediate(context.Background(), engine.Descriptor{Name: "Telnet"})
	require.NoError(t, err)
	assert.Equal(t, llm.resp, resp)

	require.Len(t, llm.got, 2)
	assert.Equal(t, Message{Role: "system", Content: "POLICY"}, llm.got[0])
	assert.Equal(t, "user", llm.got[1].Role)
	assert.Contains(t, llm.got[1].Content, `"name": "Telnet"`)
	assert.True(t, llm.deadline, "timeout should bound the call")
}

func TestRemediator_NoTimeout(t *testing.T) {
	llm := &fakeProvider{resp: "x"}
	r := NewRemediator(llm, "POLICY", 0, nil)

	_, err := r.Remediate(context.Background(), engine.Descriptor{})
	require.NoError(t, err)
	assert.False(t, llm.deadline)
}

func TestRemediator_GenerationError(t *testing.T) {
	boom := errors.New("upstream 503")
	r := NewRemediator(&fakeProvider{err: boom}, "POLICY", time.Minute, nil)

	_, err := r.Remediate(context.Background(), engine.Descriptor{Name: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, engine.StageGeneration, engine.StageOf(err))
}
