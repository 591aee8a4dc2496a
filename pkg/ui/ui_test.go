package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/remedgen/pkg/batch"
	"github.com/user/remedgen/pkg/engine"
	"github.com/user/remedgen/pkg/history"
)

func finished(index, total int, file string, outcome batch.TaskOutcome) batch.Event {
	return batch.Event{Kind: batch.TaskFinished, Index: index, Total: total, File: file, Outcome: &outcome, At: time.Now()}
}

func TestLiveModel_Update(t *testing.T) {
	m := newLiveModel()

	steps := []batch.Event{
		{Kind: batch.TaskQueued, Index: 0, Total: 2, File: "/in/a.json"},
		{Kind: batch.TaskQueued, Index: 1, Total: 2, File: "/in/b.json"},
		{Kind: batch.TaskStarted, Index: 0, Total: 2, File: "/in/a.json"},
		{Kind: batch.StageChanged, Index: 0, Total: 2, File: "/in/a.json", Stage: engine.StageGeneration},
	}
	var model tea.Model = m
	for _, ev := range steps {
		model, _ = model.Update(eventMsg(ev))
	}

	lm := model.(liveModel)
	assert.Equal(t, 2, lm.total)
	require.Contains(t, lm.active, 0)
	assert.Equal(t, engine.StageGeneration, lm.active[0].stage)
	assert.Contains(t, lm.View(), "a.json")
	assert.Contains(t, lm.View(), "generation")

	model, _ = model.Update(eventMsg(finished(0, 2, "/in/a.json", batch.TaskOutcome{SourceFile: "/in/a.json", OutputPath: "/out/a.sh"})))
	model, _ = model.Update(eventMsg(finished(1, 2, "/in/b.json", batch.TaskOutcome{SourceFile: "/in/b.json", Err: errors.New("no recoverable script content")})))

	lm = model.(liveModel)
	assert.Equal(t, 1, lm.succeeded)
	assert.Equal(t, 1, lm.failed)
	assert.Empty(t, lm.active)
	assert.InDelta(t, 1.0, lm.percent(), 0.0001)

	view := lm.View()
	assert.Contains(t, view, "2/2")
	assert.Contains(t, view, "1 failed")
	assert.Contains(t, view, "no recoverable script content")

	model, cmd := model.Update(doneMsg{})
	assert.True(t, model.(liveModel).done)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestLiveModel_RecentIsBounded(t *testing.T) {
	m := newLiveModel()
	for i := 0; i < maxRecent+4; i++ {
		m = m.apply(finished(i, 20, "f.json", batch.TaskOutcome{SourceFile: "f.json", OutputPath: "x.sh"}))
	}
	assert.Len(t, m.recent, maxRecent)
	assert.Equal(t, maxRecent+4, m.succeeded)
}

func TestPlainPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPlainPrinter(&buf)

	p.Observe(batch.Event{Kind: batch.TaskStarted, File: "a.json", Total: 2})
	p.Observe(finished(0, 2, "/in/a.json", batch.TaskOutcome{SourceFile: "/in/a.json", OutputPath: "/out/a.sh", GenerationTime: 1200 * time.Millisecond}))
	p.Observe(finished(1, 2, "/in/b.json", batch.TaskOutcome{SourceFile: "/in/b.json", Err: errors.New("generation: 503")}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[1/2] ok   a.json -> /out/a.sh (1.2s)")
	assert.Contains(t, lines[1], "[2/2] fail b.json: generation: 503")
}

func TestRenderSummary(t *testing.T) {
	s := batch.Summarize("run-42", []batch.TaskOutcome{
		{SourceFile: "/in/a.json", OutputPath: "/out/2024-01-01/120000_a.sh", Duration: 900 * time.Millisecond},
		{SourceFile: "/in/b.json", Err: errors.New("extraction: no recoverable script content"), Duration: 2 * time.Second},
	}, 75*time.Second)

	out := RenderSummary(s)
	assert.Contains(t, out, "run-42")
	assert.Contains(t, out, "Processed: 2 | Succeeded: 1 | Failed: 1")
	assert.Contains(t, out, "120000_a.sh")
	assert.Contains(t, out, "extraction: no recoverable script content")
	assert.Contains(t, out, "1m15s")
}

func TestRenderHistory(t *testing.T) {
	assert.Equal(t, "No runs recorded.\n", RenderRunList(nil))

	run := history.Run{ID: "r1", StartedAt: time.Now(), InputPath: "/in", Provider: "openai", Model: "gpt-5-mini", Total: 3, Succeeded: 2, Failed: 1}
	list := RenderRunList([]history.Run{run})
	assert.Contains(t, list, "r1")
	assert.Contains(t, list, "2/3 ok")

	detail := RenderRunDetail(&run, []history.Outcome{
		{SourceFile: "/in/a.json", Success: true, OutputPath: "/out/a.sh"},
		{SourceFile: "/in/b.json", Error: "generation: 503"},
	})
	assert.Contains(t, detail, "openai/gpt-5-mini")
	assert.Contains(t, detail, "/out/a.sh")
	assert.Contains(t, detail, "generation: 503")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", formatDuration(250*time.Millisecond))
	assert.Equal(t, "4.5s", formatDuration(4500*time.Millisecond))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefgh..", truncate("abcdefghijkl", 10))
}
