// Package store keeps a journal of proofreading runs in SQLite. The journal
// is an audit log: a run only writes to it, and only the runs command reads
// it back. It is never consulted to skip or replay service calls.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/texproof/internal"
)

// previewRunes caps the stored excerpt of each unit's text.
const previewRunes = 80

type Store struct {
	db *sql.DB
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		input_file TEXT NOT NULL,
		output_file TEXT NOT NULL,
		service TEXT NOT NULL,
		model TEXT,
		status TEXT DEFAULT 'running',
		unit_count INTEGER DEFAULT 0,
		corrected_count INTEGER DEFAULT 0,
		failed_count INTEGER DEFAULT 0,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS unit_results (
		run_id TEXT NOT NULL,
		idx INTEGER NOT NULL,
		kind TEXT NOT NULL,
		start_offset INTEGER NOT NULL,
		end_offset INTEGER NOT NULL,
		state TEXT NOT NULL,
		attempts INTEGER DEFAULT 0,
		changed BOOLEAN DEFAULT FALSE,
		distance INTEGER DEFAULT 0,
		preview TEXT,
		error TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_unit_results_run ON unit_results(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun records a run that has just started.
func (s *Store) CreateRun(ctx context.Context, run internal.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, input_file, output_file, service, model, status, unit_count, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InputFile, run.OutputFile, run.Service, run.Model, run.Status, run.UnitCount, run.StartedAt)
	return err
}

// FinishRun closes a run with its final status and outcome counts.
func (s *Store) FinishRun(ctx context.Context, id, status string, corrected, failed int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, corrected_count = ?, failed_count = ?, finished_at = ? WHERE id = ?`,
		status, corrected, failed, time.Now(), id)
	return err
}

// SaveUnitResult stores one unit's outcome for a run.
func (s *Store) SaveUnitResult(ctx context.Context, runID string, rec internal.UnitRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO unit_results (run_id, idx, kind, start_offset, end_offset, state, attempts, changed, distance, preview, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, rec.Index, rec.Kind, rec.Start, rec.End, rec.State, rec.Attempts, rec.Changed, rec.Distance,
		previewText(rec.Preview), rec.Error)
	return err
}

// GetRun fetches a single run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*internal.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, output_file, service, model, status, unit_count, corrected_count, failed_count, started_at, finished_at
		 FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns all runs, most recent first.
func (s *Store) ListRuns(ctx context.Context) ([]internal.Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_file, output_file, service, model, status, unit_count, corrected_count, failed_count, started_at, finished_at
		 FROM runs ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []internal.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetUnitResults returns a run's unit records in document order.
func (s *Store) GetUnitResults(ctx context.Context, runID string) ([]internal.UnitRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, kind, start_offset, end_offset, state, attempts, changed, distance, preview, COALESCE(error, '')
		 FROM unit_results WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []internal.UnitRecord
	for rows.Next() {
		var r internal.UnitRecord
		if err := rows.Scan(&r.Index, &r.Kind, &r.Start, &r.End, &r.State, &r.Attempts, &r.Changed, &r.Distance, &r.Preview, &r.Error); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Clear removes every run and its unit records, returning the number of runs
// deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM unit_results`); err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*internal.Run, error) {
	var run internal.Run
	var finished sql.NullTime
	err := sc.Scan(&run.ID, &run.InputFile, &run.OutputFile, &run.Service, &run.Model, &run.Status,
		&run.UnitCount, &run.CorrectedCount, &run.FailedCount, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}

// previewText normalizes a unit excerpt to NFC, collapses it to one line,
// and truncates it so the journal stays compact.
func previewText(text string) string {
	text = norm.NFC.String(strings.TrimSpace(text))
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes-3]) + "..."
	}
	return text
}
