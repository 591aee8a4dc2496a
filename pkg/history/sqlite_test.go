package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/remedgen/pkg/batch"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	started := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	summary := batch.Summarize("run-1", []batch.TaskOutcome{
		{SourceFile: "/in/b.json", OutputPath: "/out/b.sh", Duration: 1500 * time.Millisecond},
		{SourceFile: "/in/a.json", Err: errors.New("generation: timeout"), Duration: 2 * time.Second},
	}, 3*time.Second)

	run := Run{
		ID:        "run-1",
		StartedAt: started,
		InputPath: "/in",
		OutputDir: "/out",
		Provider:  "openai",
		Model:     "gpt-5-mini",
		Workers:   5,
	}
	require.NoError(t, s.Record(ctx, run, summary))

	got, outcomes, err := s.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, started, got.StartedAt)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Succeeded)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, 3*time.Second, got.Wall)
	assert.Equal(t, "gpt-5-mini", got.Model)

	require.Len(t, outcomes, 2)
	assert.Equal(t, "/in/a.json", outcomes[0].SourceFile)
	assert.False(t, outcomes[0].Success)
	assert.Equal(t, "generation: timeout", outcomes[0].Error)
	assert.True(t, outcomes[1].Success)
	assert.Equal(t, "/out/b.sh", outcomes[1].OutputPath)
	assert.Equal(t, 1500*time.Millisecond, outcomes[1].Duration)
}

func TestStore_ListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		run := Run{ID: id, StartedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, s.Record(ctx, run, batch.Summarize(id, nil, 0)))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
}

func TestStore_GetRunMissing(t *testing.T) {
	s := openTestStore(t)

	_, _, err := s.GetRun(context.Background(), "nope")
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	summary := batch.Summarize("dup", []batch.TaskOutcome{{SourceFile: "a.json", OutputPath: "a.sh"}}, time.Second)
	require.NoError(t, s.Record(ctx, Run{ID: "dup", StartedAt: time.Now()}, summary))
	assert.Error(t, s.Record(ctx, Run{ID: "dup", StartedAt: time.Now()}, summary))

	_, outcomes, err := s.GetRun(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, outcomes, 1)
}
