package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/user/remedgen/pkg/batch"
)

// Run is one recorded batch run.
type Run struct {
	ID        string
	StartedAt time.Time
	InputPath string
	OutputDir string
	Provider  string
	Model     string
	Workers   int
	Total     int
	Succeeded int
	Failed    int
	Wall      time.Duration
}

// Outcome is one recorded task result.
type Outcome struct {
	SourceFile string
	Success    bool
	OutputPath string
	Error      string
	Duration   time.Duration
}

type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the history database at path.
func Open(path string) (*Store, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir failed: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db failed: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at_unix_ms INTEGER NOT NULL,
		input_path TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		workers INTEGER NOT NULL,
		total INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		wall_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS outcomes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(id),
		source_file TEXT NOT NULL,
		success INTEGER NOT NULL,
		output_path TEXT NOT NULL,
		error_text TEXT NOT NULL,
		duration_ms INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at_unix_ms DESC);
	CREATE INDEX IF NOT EXISTS idx_outcomes_run ON outcomes(run_id);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("init history schema failed: %w", err)
	}
	return nil
}

// Record stores a run and all of its outcomes in one transaction.
func (s *Store) Record(ctx context.Context, run Run, summary batch.RunSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at_unix_ms, input_path, output_dir, provider, model, workers, total, succeeded, failed, wall_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().UnixMilli(), run.InputPath, run.OutputDir, run.Provider, run.Model,
		run.Workers, summary.Total, summary.Succeeded, summary.Failed, summary.Wall.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run failed: %w", err)
	}

	for _, o := range summary.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO outcomes (run_id, source_file, success, output_path, error_text, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, o.SourceFile, o.OK(), o.OutputPath, errText, o.Duration.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("insert outcome failed: %w", err)
		}
	}

	return tx.Commit()
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at_unix_ms, input_path, output_dir, provider, model, workers, total, succeeded, failed, wall_ms
		 FROM runs ORDER BY started_at_unix_ms DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a run and its outcomes ordered by source file.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, []Outcome, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, started_at_unix_ms, input_path, output_dir, provider, model, workers, total, succeeded, failed, wall_ms
		 FROM runs WHERE id = ?`, id,
	)
	run, err := scanRun(row)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT source_file, success, output_path, error_text, duration_ms
		 FROM outcomes WHERE run_id = ? ORDER BY source_file`, id,
	)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var outcomes []Outcome
	for rows.Next() {
		var o Outcome
		var durationMS int64
		if err := rows.Scan(&o.SourceFile, &o.Success, &o.OutputPath, &o.Error, &durationMS); err != nil {
			return nil, nil, err
		}
		o.Duration = time.Duration(durationMS) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	return &run, outcomes, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var startedMS, wallMS int64
	err := row.Scan(
		&run.ID, &startedMS, &run.InputPath, &run.OutputDir, &run.Provider, &run.Model,
		&run.Workers, &run.Total, &run.Succeeded, &run.Failed, &wallMS,
	)
	if err != nil {
		return Run{}, err
	}
	run.StartedAt = time.UnixMilli(startedMS).UTC()
	run.Wall = time.Duration(wallMS) * time.Millisecond
	return run, nil
}
