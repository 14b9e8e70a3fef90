// Package repository persists extraction-job history in a local SQLite file.
// Pure-Go driver, single connection: all writers serialize through one
// connection so concurrent requests never hit SQLITE_BUSY.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // pure-Go SQLite driver

	"github.com/joseph-ayodele/cim-tables/constants"
)

// ExtractJob is one row of extraction history.
type ExtractJob struct {
	ID             uuid.UUID
	Filename       string
	Status         constants.JobStatus
	TablesAccepted int
	TablesSkipped  int
	WorkbookFile   string
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// JobRepository records and lists extraction jobs.
type JobRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (and migrates) the job store at dbPath.
func Open(dbPath string, logger *slog.Logger) (*JobRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS extract_job (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		status TEXT NOT NULL,
		tables_accepted INTEGER NOT NULL DEFAULT 0,
		tables_skipped INTEGER NOT NULL DEFAULT 0,
		workbook_file TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate extract_job: %w", err)
	}
	logger.Info("jobs.store.opened", "path", dbPath)
	return &JobRepository{db: db, logger: logger}, nil
}

func (r *JobRepository) Close() error { return r.db.Close() }

// Create inserts a new job in QUEUED state and returns its ID.
func (r *JobRepository) Create(ctx context.Context, filename string) (uuid.UUID, error) {
	id := uuid.New()
	now := time.Now().UTC().Unix()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO extract_job (id, filename, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id.String(), filename, string(constants.JobStatusQueued), now, now)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert extract_job: %w", err)
	}
	return id, nil
}

// MarkRunning flips a job to RUNNING.
func (r *JobRepository) MarkRunning(ctx context.Context, id uuid.UUID) error {
	return r.setStatus(ctx, id, constants.JobStatusRunning, "")
}

// MarkFailed records a terminal failure.
func (r *JobRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	return r.setStatus(ctx, id, constants.JobStatusFailed, errMsg)
}

// MarkExtracted records a successful run with its counts and workbook file.
func (r *JobRepository) MarkExtracted(ctx context.Context, id uuid.UUID, accepted, skipped int, workbookFile string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extract_job
		 SET status = ?, tables_accepted = ?, tables_skipped = ?, workbook_file = ?, updated_at = ?
		 WHERE id = ?`,
		string(constants.JobStatusExtractOK), accepted, skipped, workbookFile,
		time.Now().UTC().Unix(), id.String())
	if err != nil {
		return fmt.Errorf("update extract_job: %w", err)
	}
	return nil
}

func (r *JobRepository) setStatus(ctx context.Context, id uuid.UUID, status constants.JobStatus, errMsg string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE extract_job SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC().Unix(), id.String())
	if err != nil {
		return fmt.Errorf("update extract_job status: %w", err)
	}
	return nil
}

// GetByID loads one job.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*ExtractJob, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, filename, status, tables_accepted, tables_skipped, workbook_file, error, created_at, updated_at
		 FROM extract_job WHERE id = ?`, id.String())
	return scanJob(row)
}

// ListRecent returns the most recent jobs, newest first.
func (r *JobRepository) ListRecent(ctx context.Context, limit int) ([]*ExtractJob, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, filename, status, tables_accepted, tables_skipped, workbook_file, error, created_at, updated_at
		 FROM extract_job ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query extract_job: %w", err)
	}
	defer rows.Close()

	var out []*ExtractJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*ExtractJob, error) {
	var (
		j                  ExtractJob
		idStr, status      string
		createdS, updatedS int64
	)
	err := row.Scan(&idStr, &j.Filename, &status, &j.TablesAccepted, &j.TablesSkipped,
		&j.WorkbookFile, &j.Error, &createdS, &updatedS)
	if err != nil {
		return nil, fmt.Errorf("scan extract_job: %w", err)
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse job id: %w", err)
	}
	j.ID = id
	j.Status = constants.JobStatus(status)
	j.CreatedAt = time.Unix(createdS, 0).UTC()
	j.UpdatedAt = time.Unix(updatedS, 0).UTC()
	return &j, nil
}
