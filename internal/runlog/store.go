package runlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dennisaldea/chipseqpipe/internal/config"
	"github.com/dennisaldea/chipseqpipe/internal/services"
)

// Store persists the run ledger in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database under the log
// directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// StartRun inserts a new run in the running state.
func (s *Store) StartRun(ctx context.Context, id, command, genome string) (*Run, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, command, genome, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id,
		command,
		nullableString(genome),
		RunStatusRunning,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return s.GetRun(ctx, id)
}

// FinishRun marks a run completed or failed.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, errorMessage string) error {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status,
		nullableString(errorMessage),
		timestamp,
		id,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrNotFound, "", "finish run", "run "+id+" not in ledger", nil)
	}
	return nil
}

const runColumns = "id, command, genome, status, error_message, started_at, finished_at"

// GetRun fetches one run by ID.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "", "get run", "run "+id+" not in ledger", nil)
	}
	return run, err
}

// LatestRun returns the most recently started run, or nil when the ledger is
// empty.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs ORDER BY started_at DESC LIMIT 1")
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return run, err
}

// ListRuns returns runs newest-first, up to limit (0 means all).
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RecordTask inserts a finished task row.
func (s *Store) RecordTask(ctx context.Context, task *Task) error {
	if task == nil {
		return services.Wrap(services.ErrInternal, "", "record task", "nil task", nil)
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tasks (
            run_id, stage, sample_group, replicate, role, tool,
            status, exit_code, error_kind, error_message, log_path,
            duration_ms, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.RunID,
		task.Stage,
		task.Group,
		nullableString(task.Replicate),
		nullableString(task.Role),
		nullableString(task.Tool),
		task.Status,
		task.ExitCode,
		nullableString(string(task.ErrorKind)),
		nullableString(task.ErrorMessage),
		nullableString(task.LogPath),
		task.Duration.Milliseconds(),
		task.StartedAt.UTC().Format(time.RFC3339Nano),
		task.FinishedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	if task.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	return nil
}

const taskColumns = "id, run_id, stage, sample_group, replicate, role, tool, status, exit_code, error_kind, error_message, log_path, duration_ms, started_at, finished_at"

// ListTasks returns a run's tasks in insertion order.
func (s *Store) ListTasks(ctx context.Context, runID string) ([]*Task, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// TaskCounts reports how many of a run's tasks completed and failed.
func (s *Store) TaskCounts(ctx context.Context, runID string) (completed, failed int, err error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(1) FROM tasks WHERE run_id = ? GROUP BY status", runID)
	if err != nil {
		return 0, 0, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, fmt.Errorf("scan task count: %w", err)
		}
		switch TaskStatus(status) {
		case TaskStatusCompleted:
			completed = count
		case TaskStatusFailed:
			failed = count
		}
	}
	return completed, failed, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		id          string
		command     string
		genome      sql.NullString
		statusStr   string
		errMessage  sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(&id, &command, &genome, &statusStr, &errMessage, &startedRaw, &finishedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return &Run{
		ID:           id,
		Command:      command,
		Genome:       genome.String,
		Status:       RunStatus(statusStr),
		ErrorMessage: errMessage.String,
		StartedAt:    parseTime(startedRaw),
		FinishedAt:   parseTime(finishedRaw.String),
	}, nil
}

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id          int64
		runID       string
		stage       string
		group       string
		replicate   sql.NullString
		role        sql.NullString
		tool        sql.NullString
		statusStr   string
		exitCode    sql.NullInt64
		errorKind   sql.NullString
		errMessage  sql.NullString
		logPath     sql.NullString
		durationMS  int64
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&id, &runID, &stage, &group, &replicate, &role, &tool,
		&statusStr, &exitCode, &errorKind, &errMessage, &logPath,
		&durationMS, &startedRaw, &finishedRaw,
	); err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &Task{
		ID:           id,
		RunID:        runID,
		Stage:        stage,
		Group:        group,
		Replicate:    replicate.String,
		Role:         role.String,
		Tool:         tool.String,
		Status:       TaskStatus(statusStr),
		ExitCode:     int(exitCode.Int64),
		ErrorKind:    services.Kind(errorKind.String),
		ErrorMessage: errMessage.String,
		LogPath:      logPath.String,
		Duration:     time.Duration(durationMS) * time.Millisecond,
		StartedAt:    parseTime(startedRaw),
		FinishedAt:   parseTime(finishedRaw.String),
	}, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return parsed
}
