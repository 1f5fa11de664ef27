// Package history records sync runs in a SQLite database so drift in a
// document's examples can be inspected across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/docsync/internal/models"
)

// Run is one recorded execution of a document.
type Run struct {
	ID         string
	Path       string
	StartedAt  time.Time
	Duration   time.Duration
	Examples   int
	Changed    int
	Raised     int
	Suppressed int
	Results    []ExampleResult
}

// ExampleResult is the recorded outcome of a single example.
type ExampleResult struct {
	Line         int
	Changed      bool
	ErrorKind    string // Empty when the command did not raise
	ErrorSummary string
	Suppressed   bool
}

// NewRun builds a Run from an executed document and its summary. Changes
// are judged in dialect d.
func NewRun(doc *models.Document, summary models.RunSummary, startedAt time.Time, d models.Dialect) *Run {
	run := &Run{
		Path:       summary.Path,
		StartedAt:  startedAt,
		Duration:   summary.Duration,
		Examples:   summary.Examples,
		Changed:    summary.Changed,
		Raised:     summary.Raised,
		Suppressed: summary.Suppressed,
	}
	for _, ex := range doc.Examples() {
		res := ExampleResult{
			Line:       ex.Line,
			Changed:    ex.ChangedIn(d),
			Suppressed: ex.Outcome.State == models.OutcomeSuppressed,
		}
		if rep := ex.Outcome.Report; rep != nil {
			res.ErrorKind = errorKind(rep.Summary)
			res.ErrorSummary = rep.Summary
		}
		run.Results = append(run.Results, res)
	}
	return run
}

func errorKind(summary string) string {
	if i := strings.Index(summary, ":"); i >= 0 {
		return summary[:i]
	}
	return summary
}

// Store manages the SQLite database of sync runs
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the history database at dbPath and
// applies pending migrations.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// execWithRetry executes a SQL statement with exponential backoff retry on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores run and its example results. A run without an ID is
// assigned a new UUID.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, path, started_at, duration_ms, examples, changed, raised, suppressed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.Path,
		run.StartedAt.UTC(),
		run.Duration.Milliseconds(),
		run.Examples,
		run.Changed,
		run.Raised,
		run.Suppressed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_examples
		(run_id, line, changed, error_kind, error_summary, suppressed)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare example insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range run.Results {
		if _, err := stmt.ExecContext(ctx, run.ID, res.Line, res.Changed,
			nullable(res.ErrorKind), nullable(res.ErrorSummary), res.Suppressed); err != nil {
			return fmt.Errorf("insert example at line %d: %w", res.Line, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// RecentRuns returns up to limit runs of path, most recent first. Results
// are not loaded; use RunExamples. A non-positive limit returns every run.
func (s *Store) RecentRuns(ctx context.Context, path string, limit int) ([]*Run, error) {
	query := `SELECT run_id, path, started_at, duration_ms, examples, changed, raised, suppressed
		FROM runs WHERE path = ? ORDER BY id DESC`
	args := []any{path}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var durationMS int64
		if err := rows.Scan(&run.ID, &run.Path, &run.StartedAt, &durationMS,
			&run.Examples, &run.Changed, &run.Raised, &run.Suppressed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// RunExamples returns the example results of runID in document order.
func (s *Store) RunExamples(ctx context.Context, runID string) ([]ExampleResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT line, changed, error_kind, error_summary, suppressed
		FROM run_examples WHERE run_id = ? ORDER BY line ASC, id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run examples: %w", err)
	}
	defer rows.Close()

	var results []ExampleResult
	for rows.Next() {
		var res ExampleResult
		var kind, summary sql.NullString
		if err := rows.Scan(&res.Line, &res.Changed, &kind, &summary, &res.Suppressed); err != nil {
			return nil, fmt.Errorf("scan run example: %w", err)
		}
		res.ErrorKind = kind.String
		res.ErrorSummary = summary.String
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run examples: %w", err)
	}
	return results, nil
}

// Prune keeps the newest keep runs of every document and deletes the rest.
// It returns the number of runs deleted. A non-positive keep keeps
// everything.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stale := `SELECT r.run_id FROM runs r
		WHERE (SELECT COUNT(*) FROM runs n WHERE n.path = r.path AND n.id > r.id) >= ?`

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_examples WHERE run_id IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("prune run examples: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return deleted, nil
}
